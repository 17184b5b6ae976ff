package api

import (
	"strings"

	"github.com/phrazzld/ladder-api/internal/api/shared"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// SubmitAnswerRequest is the body of POST /api/exercises/{id}/submissions.
type SubmitAnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// Validate rejects a missing or blank answer.
func (r SubmitAnswerRequest) Validate() error {
	if err := shared.Validate.Struct(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.Answer) == "" {
		return domain.NewValidationError("answer", "is required", domain.ErrValidation)
	}
	return nil
}
