package domain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a single question definition.
func Validate(spec QuestionSpec) error {
	return validateAt(-1, spec)
}

// ValidateQuestions checks every definition in authoring order and rejects repeated ids.
func ValidateQuestions(specs []QuestionSpec) error {
	seen := make(map[string]int, len(specs))
	for i, spec := range specs {
		if err := validateAt(i, spec); err != nil {
			return err
		}
		if first, dup := seen[spec.ID]; dup {
			return &InvalidQuestionSpecError{
				Index:      i,
				QuestionID: spec.ID,
				Field:      "ID",
				Reason:     "duplicates question " + strconv.Itoa(first),
			}
		}
		seen[spec.ID] = i
	}
	return nil
}

func validateAt(i int, spec QuestionSpec) error {
	if err := validate.Struct(spec); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &InvalidQuestionSpecError{
				Index:      i,
				QuestionID: spec.ID,
				Field:      fe.Field(),
				Reason:     describeTag(fe.Tag(), fe.Param()),
			}
		}
		return &InvalidQuestionSpecError{Index: i, QuestionID: spec.ID, Reason: err.Error()}
	}
	if strings.TrimSpace(spec.AnswerKey) == "" {
		return &InvalidQuestionSpecError{Index: i, QuestionID: spec.ID, Field: "AnswerKey", Reason: "is required"}
	}
	return nil
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	default:
		return "failed " + tag
	}
}
