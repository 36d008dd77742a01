// Package validation wraps go-playground/validator with a shared instance and
// translates its field errors into apperror.ValidationFailed values.
//
// Field names in errors are taken from the json tag, so a failure on
// CookingTime is reported as "cooking_time", the name the client sent.
//
//	type RecipeInput struct {
//	    Name        string `json:"name" validate:"required,max=200"`
//	    CookingTime int    `json:"cooking_time" validate:"gte=1"`
//	}
//
//	if err := validation.Struct(&in); err != nil {
//	    return nil, err // *apperror.AppError, kind validation_error
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/foodgram/internal/apperror"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Get returns the shared validator. It caches struct metadata, so one
// instance serves the whole process.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			switch name {
			case "-":
				return ""
			case "":
				return f.Name
			}
			return name
		})

		// slug: URL-safe tag slug.
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s and returns nil or an *apperror.AppError naming the
// first failing field. Other failures are appended to the message.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validation: %w", err)
	}

	messages := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = translate(fe)
	}
	return apperror.ValidationFailed(fieldErrs[0].Field(), strings.Join(messages, "; "))
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"hexcolor": "%s must be a hex color such as #E26C2D",
	"slug":     "%s may contain only letters, digits, '-' and '_'",
}

var messageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s can not be less than %s",
	"lte":   "%s can not be greater than %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if tmpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messageWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must contain at least %s item(s)", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must contain at most %s item(s)", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
