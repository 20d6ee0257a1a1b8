package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the model's custom tags
// registered. It is safe for concurrent use.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("canton", func(fl validator.FieldLevel) bool {
			_, ok := Cantons[fl.Field().String()]
			return ok
		})
	})
	return validate
}

// ValidateStruct checks v against its validate tags and flattens the
// failures into one error listing every offending field.
func ValidateStruct(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Validate checks the tenant's fields and that its default language is one
// of its active languages.
func (t *Tenant) Validate() error {
	if err := ValidateStruct(t); err != nil {
		return err
	}
	if len(t.ActiveLanguages) > 0 && !t.ActiveLanguages.Contains(t.DefaultLanguage) {
		return fmt.Errorf("default language %q is not an active language", t.DefaultLanguage)
	}
	return nil
}
