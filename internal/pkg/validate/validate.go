// Package validate wraps go-playground/validator with the rules shared by
// request and service input structs.
package validate

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// moneyPattern is a non-negative decimal with at most two places.
var moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

var (
	once     sync.Once
	instance *validator.Validate
)

// Get returns the shared validator. Field names in errors use json tags.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.Split(f.Tag.Get("json"), ",")[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			return moneyPattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s against its validate tags.
func Struct(s any) error {
	return Get().Struct(s)
}
