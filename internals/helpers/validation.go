package helper

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is shared by every DTO. The json tag name is reported instead of
// the Go field name.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the validator and converts failures to a Validation AppError.
func ValidateStruct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Validation("invalid input")
	}
	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		key := fe.Field()
		msg := fe.Tag()
		if p := fe.Param(); p != "" {
			msg += "=" + p
		}
		fields[key] = append(fields[key], msg)
	}
	return &AppError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}
