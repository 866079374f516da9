package api

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/victornm/interviewprep/internal/domain"
)

var (
	setupOnce sync.Once
	setupErr  error
	trans     ut.Translator
)

// setupValidator registers JSON field names, English messages and the
// difficulty tag on gin's binding engine. It is safe to call more than once
// and reports the same result each time.
func setupValidator() error {
	setupOnce.Do(func() {
		setupErr = registerValidator()
	})
	return setupErr
}

func registerValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return domain.Difficulty(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("register difficulty validation: %w", err)
	}

	locale := en.New()
	t, found := ut.New(locale, locale).GetTranslator("en")
	if !found {
		return stderrors.New("english translator not found")
	}

	if err := entranslations.RegisterDefaultTranslations(v, t); err != nil {
		return fmt.Errorf("register default translations: %w", err)
	}

	if err := v.RegisterTranslation("difficulty", t,
		func(ut ut.Translator) error {
			return ut.Add("difficulty", "{0} must be one of beginner, intermediate or advanced", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			s, _ := ut.T("difficulty", fe.Field())
			return s
		},
	); err != nil {
		return fmt.Errorf("register difficulty translation: %w", err)
	}

	trans = t
	return nil
}

// describe turns a binding error into a single readable message.
func describe(err error) string {
	var ve validator.ValidationErrors
	if !stderrors.As(err, &ve) || trans == nil {
		return err.Error()
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fe.Translate(trans))
	}
	return strings.Join(msgs, "; ")
}
