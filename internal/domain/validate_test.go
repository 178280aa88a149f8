package domain

import (
	"errors"
	"testing"
)

func validSpec(id string) QuestionSpec {
	return QuestionSpec{
		ID:               id,
		DurationSeconds:  15,
		TimeLimitSeconds: 30,
		AnswerKey:        "b",
		Reward:           Reward{BaseMeritos: 15, BaseOndas: 8},
	}
}

func TestValidateRejectsMalformedSpecs(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*QuestionSpec)
		field string
	}{
		{"zero duration", func(s *QuestionSpec) { s.DurationSeconds = 0 }, "DurationSeconds"},
		{"negative duration", func(s *QuestionSpec) { s.DurationSeconds = -1 }, "DurationSeconds"},
		{"zero time limit", func(s *QuestionSpec) { s.TimeLimitSeconds = 0 }, "TimeLimitSeconds"},
		{"negative meritos", func(s *QuestionSpec) { s.Reward.BaseMeritos = -1 }, "BaseMeritos"},
		{"negative ondas", func(s *QuestionSpec) { s.Reward.BaseOndas = -3 }, "BaseOndas"},
		{"empty answer key", func(s *QuestionSpec) { s.AnswerKey = "" }, "AnswerKey"},
		{"blank answer key", func(s *QuestionSpec) { s.AnswerKey = "   " }, "AnswerKey"},
		{"missing id", func(s *QuestionSpec) { s.ID = "" }, "ID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec("q1")
			tc.mut(&spec)
			err := Validate(spec)
			if !errors.Is(err, ErrInvalidQuestionSpec) {
				t.Fatalf("expected invalid spec error, got %v", err)
			}
			var specErr *InvalidQuestionSpecError
			if !errors.As(err, &specErr) || specErr.Field != tc.field {
				t.Fatalf("expected field %s, got %+v", tc.field, specErr)
			}
		})
	}
}

func TestValidateAcceptsZeroRewards(t *testing.T) {
	spec := validSpec("q1")
	spec.Reward = Reward{}
	if err := Validate(spec); err != nil {
		t.Fatalf("expected valid spec, got %v", err)
	}
}

func TestValidateQuestionsRejectsDuplicateIDs(t *testing.T) {
	err := ValidateQuestions([]QuestionSpec{validSpec("q1"), validSpec("q2"), validSpec("q1")})
	var specErr *InvalidQuestionSpecError
	if !errors.As(err, &specErr) {
		t.Fatalf("expected invalid spec error, got %v", err)
	}
	if specErr.Index != 2 || specErr.Field != "ID" {
		t.Fatalf("expected duplicate at index 2, got %+v", specErr)
	}
}

func TestValidateQuestionsReportsIndex(t *testing.T) {
	bad := validSpec("q2")
	bad.TimeLimitSeconds = -5
	err := ValidateQuestions([]QuestionSpec{validSpec("q1"), bad})
	var specErr *InvalidQuestionSpecError
	if !errors.As(err, &specErr) || specErr.Index != 1 || specErr.QuestionID != "q2" {
		t.Fatalf("expected error on q2 at index 1, got %v", err)
	}
}
