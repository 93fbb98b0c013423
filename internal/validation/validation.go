// Package validation проверяет модели и тела запросов по тэгам `validate`.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalid оборачивает все ошибки валидации, чтобы вызывающий код мог их распознать.
var ErrInvalid = errors.New("некорректные данные")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// В сообщениях используем имена полей из JSON, а не из Go.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// decimal.Decimal сравнивается как число (нужно для gte=0 у цены).
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// Struct проверяет структуру и возвращает ошибку, оборачивающую ErrInvalid,
// с перечислением всех нарушенных правил.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("ошибка валидации: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Field()+": "+describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages, ", "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "max":
		return "не более " + fe.Param() + " символов"
	case "min":
		return "должно быть не меньше " + fe.Param()
	case "gt":
		return "должно быть больше " + fe.Param()
	case "gte":
		return "не может быть отрицательным"
	default:
		return "не прошло проверку " + fe.Tag()
	}
}
