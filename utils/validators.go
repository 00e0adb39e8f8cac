package utils

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators wires the custom "estado" binding tag into gin's
// validator and makes field errors report json/form names.
func RegisterValidators(validStatus func(string) bool) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})

	return v.RegisterValidation("estado", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		// empty means "not provided"; pair with required when mandatory
		return value == "" || validStatus(value)
	})
}
