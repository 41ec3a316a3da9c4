package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"quiz-competition-service/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate  *govalidator.Validate
	trans     ut.Translator
	setupOnce sync.Once

	bindValidate *govalidator.Validate
	bindTrans    ut.Translator
	ginOnce      sync.Once
)

func newTranslator() ut.Translator {
	enLocale := en.New()
	t, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	return t
}

func setup() {
	setupOnce.Do(func() {
		trans = newTranslator()
		validate = govalidator.New(govalidator.WithRequiredStructEnabled())
		configure(validate, trans)
	})
}

// configure names fields after their json (or form) tag and registers English messages.
func configure(v *govalidator.Validate, t ut.Translator) {
	v.RegisterTagNameFunc(fieldName)
	_ = en_translations.RegisterDefaultTranslations(v, t)
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// Struct validates v against its `validate` tags. Failures come back as a
// *domain.ValidationError carrying message and one entry per offending field.
func Struct(v any, message string) error {
	setup()
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		return &domain.ValidationError{Message: message, Fields: translate(ve, trans)}
	}
	return err
}

// bindingValidator is gin's StructValidator over a validator that reads
// `binding` tags and has its own translator.
type bindingValidator struct {
	v *govalidator.Validate
}

func (b bindingValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	val := reflect.ValueOf(obj)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return b.v.Struct(obj)
}

func (b bindingValidator) Engine() any {
	return b.v
}

// SetupGin installs the binding validator so `binding` tag failures read
// like the service-level ones.
func SetupGin() {
	ginOnce.Do(func() {
		bindTrans = newTranslator()
		bindValidate = govalidator.New(govalidator.WithRequiredStructEnabled())
		bindValidate.SetTagName("binding")
		configure(bindValidate, bindTrans)
		binding.Validator = bindingValidator{v: bindValidate}
	})
}

// TranslateErrors turns a binding error into field -> message pairs. Errors
// that are not validation failures (malformed JSON, bad integers) map to "detail".
func TranslateErrors(err error) map[string]string {
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) && bindTrans != nil {
		return translate(ve, bindTrans)
	}
	return map[string]string{"detail": "malformed request"}
}

func translate(ve govalidator.ValidationErrors, t ut.Translator) map[string]string {
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(t)
	}
	return fields
}
