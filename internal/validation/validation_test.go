package validation

import (
	"errors"
	"testing"

	"quiz-competition-service/internal/domain"

	"github.com/gin-gonic/gin/binding"
)

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"min=18"`
}

type query struct {
	Limit int `form:"limit" binding:"max=50"`
}

func TestStructUsesJSONNamesAndMessage(t *testing.T) {
	err := Struct(signup{Email: "nope", Age: 3}, "Check the form.")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Message != "Check the form." {
		t.Fatalf("unexpected message %q", verr.Message)
	}
	if verr.Fields["email"] == "" || verr.Fields["age"] == "" {
		t.Fatalf("expected email and age messages, got %v", verr.Fields)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("validation error should match ErrValidation")
	}

	if err := Struct(signup{Email: "a@b.co", Age: 20}, "x"); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestBindingErrorsAreTranslated(t *testing.T) {
	SetupGin()
	err := binding.Validator.ValidateStruct(&query{Limit: 99})
	if err == nil {
		t.Fatalf("expected binding failure")
	}
	fields := TranslateErrors(err)
	if msg := fields["limit"]; msg != "limit must be 50 or less" {
		t.Fatalf("unexpected translation %q", msg)
	}

	if got := TranslateErrors(errors.New("boom")); got["detail"] == "" {
		t.Fatalf("non-validation errors should map to detail, got %v", got)
	}
}
