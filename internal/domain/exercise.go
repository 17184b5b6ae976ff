package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExerciseKind identifies which answer variant an exercise carries.
type ExerciseKind string

// Exercise kinds. The string values are persisted in exercises.kind.
const (
	KindMultipleChoice ExerciseKind = "multiple_choice"
	KindFillInBlank    ExerciseKind = "fill_in_blank"
	KindListening      ExerciseKind = "listening"
	KindTranslation    ExerciseKind = "translation"
)

// Variant is the closed set of exercise answer variants.
// Only the types in this package implement it.
type Variant interface {
	Kind() ExerciseKind
	validate() error
}

// VariantValue returns v with pointer variants dereferenced, so callers can
// switch on the value types only. A nil pointer yields nil.
func VariantValue(v Variant) Variant {
	switch p := v.(type) {
	case *MultipleChoice:
		if p != nil {
			return *p
		}
	case *FillInBlank:
		if p != nil {
			return *p
		}
	case *Listening:
		if p != nil {
			return *p
		}
	case *Translation:
		if p != nil {
			return *p
		}
	default:
		return v
	}
	return nil
}

// Option is one selectable answer of a multiple choice exercise.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// MultipleChoice is answered by submitting the ID of an option.
type MultipleChoice struct {
	Options []Option `json:"options"`
}

// FillInBlank is answered with free text compared after normalization.
// AcceptedAnswers holds additional comma separated answers.
type FillInBlank struct {
	CorrectAnswer   string `json:"correct_answer"`
	AcceptedAnswers string `json:"accepted_answers,omitempty"`
	CaseSensitive   bool   `json:"case_sensitive"`
	TrimWhitespace  bool   `json:"trim_whitespace"`
}

// Listening is a dictation exercise. Answers are always trimmed.
type Listening struct {
	AudioURL        string `json:"audio_url"`
	CorrectAnswer   string `json:"correct_answer"`
	AcceptedAnswers string `json:"accepted_answers,omitempty"`
	CaseSensitive   bool   `json:"case_sensitive"`
	MaxReplays      int    `json:"max_replays"`
}

// Translation is graded by edit-distance similarity against TargetText.
type Translation struct {
	SourceText        string  `json:"source_text"`
	TargetText        string  `json:"target_text"`
	SourceLang        string  `json:"source_lang"`
	TargetLang        string  `json:"target_lang"`
	MatchingThreshold float64 `json:"matching_threshold"`
}

// Kind implements Variant.
func (MultipleChoice) Kind() ExerciseKind { return KindMultipleChoice }

// Kind implements Variant.
func (FillInBlank) Kind() ExerciseKind { return KindFillInBlank }

// Kind implements Variant.
func (Listening) Kind() ExerciseKind { return KindListening }

// Kind implements Variant.
func (Translation) Kind() ExerciseKind { return KindTranslation }

func (v MultipleChoice) validate() error {
	if len(v.Options) == 0 {
		return NewValidationError("options", "cannot be empty", ErrInvalidVariant)
	}
	seen := make(map[string]struct{}, len(v.Options))
	correct := 0
	for _, o := range v.Options {
		if o.ID == "" {
			return NewValidationError("options.id", "cannot be empty", ErrInvalidVariant)
		}
		if _, dup := seen[o.ID]; dup {
			return NewValidationError("options.id", "must be unique", ErrInvalidVariant)
		}
		seen[o.ID] = struct{}{}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return NewValidationError("options", "must have exactly one correct option", ErrInvalidVariant)
	}
	return nil
}

func (v FillInBlank) validate() error {
	if v.CorrectAnswer == "" {
		return NewValidationError("correct_answer", "cannot be empty", ErrInvalidVariant)
	}
	return nil
}

func (v Listening) validate() error {
	if v.CorrectAnswer == "" {
		return NewValidationError("correct_answer", "cannot be empty", ErrInvalidVariant)
	}
	if v.MaxReplays < 0 {
		return NewValidationError("max_replays", "cannot be negative", ErrInvalidVariant)
	}
	return nil
}

func (v Translation) validate() error {
	if v.MatchingThreshold < 0 || v.MatchingThreshold > 1 {
		return NewValidationError("matching_threshold", "must be between 0 and 1", ErrInvalidVariant)
	}
	return nil
}

// Exercise is a single gradable item inside a lesson.
type Exercise struct {
	ID          uuid.UUID `json:"id"`
	LessonID    uuid.UUID `json:"lesson_id"`
	Title       string    `json:"title"`
	Points      int       `json:"points"`
	OrderIndex  int       `json:"order_index"`
	IsLocked    bool      `json:"is_locked"`
	Explanation string    `json:"explanation,omitempty"`
	Variant     Variant   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Kind returns the kind of the exercise's variant, or "" when none is set.
func (e *Exercise) Kind() ExerciseKind {
	v := VariantValue(e.Variant)
	if v == nil {
		return ""
	}
	return v.Kind()
}

// Validate checks the common fields and the variant rules.
func (e *Exercise) Validate() error {
	if e.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if e.LessonID == uuid.Nil {
		return NewValidationError("lesson_id", "cannot be empty", ErrInvalidID)
	}
	if e.Points < 0 {
		return NewValidationError("points", "cannot be negative", nil)
	}
	if e.OrderIndex < 0 {
		return NewValidationError("order_index", "cannot be negative", nil)
	}
	v := VariantValue(e.Variant)
	if v == nil {
		return NewValidationError("variant", "is required", ErrInvalidVariant)
	}
	return v.validate()
}

// RevealAnswer returns the answer shown to a learner after an incorrect
// submission: the correct option ID, the expected text, or the target
// translation.
func (e *Exercise) RevealAnswer() string {
	switch v := VariantValue(e.Variant).(type) {
	case MultipleChoice:
		for _, o := range v.Options {
			if o.IsCorrect {
				return o.ID
			}
		}
		return ""
	case FillInBlank:
		return v.CorrectAnswer
	case Listening:
		return v.CorrectAnswer
	case Translation:
		return v.TargetText
	default:
		return ""
	}
}

// EncodeVariant serializes a variant for the exercises.variant JSONB column.
func EncodeVariant(v Variant) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil variant", ErrInvalidVariant)
	}
	return json.Marshal(v)
}

// DecodeVariant rebuilds a variant from its persisted kind and JSON payload.
func DecodeVariant(kind ExerciseKind, data []byte) (Variant, error) {
	var (
		v   Variant
		err error
	)
	switch kind {
	case KindMultipleChoice:
		var mc MultipleChoice
		err = json.Unmarshal(data, &mc)
		v = mc
	case KindFillInBlank:
		var fb FillInBlank
		err = json.Unmarshal(data, &fb)
		v = fb
	case KindListening:
		var l Listening
		err = json.Unmarshal(data, &l)
		v = l
	case KindTranslation:
		var t Translation
		err = json.Unmarshal(data, &t)
		v = t
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExerciseKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVariant, err)
	}
	return v, nil
}
