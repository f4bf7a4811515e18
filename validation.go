package account

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// validationStep pairs a rule set with the error reported when it fails.
// Steps run in order and the first failure wins.
type validationStep struct {
	textCode string
	reason   string
	check    func() error
}

func runValidation(steps ...validationStep) error {
	for _, step := range steps {
		if err := step.check(); err != nil {
			return ErrValidationFailed(step.textCode, step.reason)
		}
	}
	return nil
}

func requireAll(values ...string) func() error {
	return func() error {
		for _, v := range values {
			if err := validation.Validate(v, validation.Required); err != nil {
				return err
			}
		}
		return nil
	}
}

func rules(value any, rules ...validation.Rule) func() error {
	return func() error {
		return validation.Validate(value, rules...)
	}
}

// ValidateStringEquals fails unless the value equals str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
