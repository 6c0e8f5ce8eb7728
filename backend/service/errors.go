package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrJobNotFound     = errors.New("job not found")
	ErrInvalidRequest  = errors.New("invalid request")
)

var validate = validator.New()

// validateRequest checks validate tags and wraps failures in ErrInvalidRequest
func validateRequest(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.Wrap(ErrInvalidRequest, err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, e.Namespace()+" failed on "+e.Tag())
	}
	return errors.Wrap(ErrInvalidRequest, strings.Join(messages, "; "))
}
