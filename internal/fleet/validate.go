package fleet

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("label"), ",", 2)[0]
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct checks s against its validate tags and returns a validation
// *Error listing every failed field.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Validation(err.Error())
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, translateError(fe))
	}
	return &Error{Kind: KindValidation, Message: strings.Join(messages, "; "), Err: err}
}

var errorMessageTemplates = map[string]string{
	"required": "%s é obrigatório",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s deve ser um de: %s",
	"gt":    "%s deve ser maior que %s",
	"gte":   "%s deve ser maior ou igual a %s",
	"lte":   "%s deve ser menor ou igual a %s",
}

func translateError(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	switch tag {
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s deve ter no máximo %s caracteres", field, param)
		}
		return fmt.Sprintf("%s deve ser no máximo %s", field, param)
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s deve ter pelo menos %s caracteres", field, param)
		}
		return fmt.Sprintf("%s deve ser pelo menos %s", field, param)
	default:
		return fmt.Sprintf("%s é inválido (%s)", field, tag)
	}
}
