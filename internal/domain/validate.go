package domain

import (
	"fmt"
	"strings"
)

// ValidationError describes a single pre-save rule violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string { return e.Message }

// ValidationErrors aggregates violations in precedence order; the first
// element is always the first-detected failure.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "quiz is invalid"
	case 1:
		return e[0].Message
	default:
		return fmt.Sprintf("%s (and %d more)", e[0].Message, len(e)-1)
	}
}

// ValidateQuiz checks a quiz against the pre-save rules in fixed precedence:
// title, description, time limit, question count, then per-question compiler
// references in question order. A nil return means the quiz may be persisted.
func ValidateQuiz(q Quiz) error {
	var errs ValidationErrors
	if strings.TrimSpace(q.Title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "Quiz title is required"})
	}
	if strings.TrimSpace(q.Description) == "" {
		errs = append(errs, ValidationError{Field: "description", Message: "Quiz description is required"})
	}
	if q.TimeLimit < 0 {
		errs = append(errs, ValidationError{Field: "timeLimit", Message: "Time limit cannot be negative"})
	}
	if len(q.Questions) == 0 {
		errs = append(errs, ValidationError{Field: "questions", Message: "Add at least one question before saving"})
	}
	for _, qu := range q.Questions {
		if qu.Kind != KindCompiler {
			continue
		}
		if qu.Compiler == nil || strings.TrimSpace(qu.Compiler.ReferenceCode) == "" {
			errs = append(errs, ValidationError{
				Field:   "referenceCode",
				Message: fmt.Sprintf("Compiler question %q needs a reference solution", qu.Text),
			})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
