package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"todoTracker/internal/service"

	"github.com/go-playground/validator/v10"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

type Validator struct {
	validate *validator.Validate
}

// NewValidator: allowedDomain ограничивает домен email при регистрации, пустая строка - любой домен
func NewValidator(allowedDomain string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	domain := strings.ToLower(strings.TrimPrefix(allowedDomain, "@"))
	v.RegisterValidation("email_domain", func(fl validator.FieldLevel) bool {
		if domain == "" {
			return true
		}
		return strings.HasSuffix(strings.ToLower(fl.Field().String()), "@"+domain)
	})

	return &Validator{validate: v}
}

// Struct собирает все ошибки полей в одно сообщение
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	reasons := make([]string, 0, len(fieldErrors))
	fields := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		reasons = append(reasons, fmt.Sprintf("%s: %s", fieldName(fe), describe(fe)))
		fields = append(fields, fieldName(fe))
	}

	return service.NewBusinessError(service.CodeValidation,
		"Ошибка валидации: "+strings.Join(reasons, ", "),
		service.ToDetail("fields", fields),
	)
}

// для элементов массива validator отдаёт имя вида tags[0]
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("не менее %s элементов", fe.Param())
		}
		return fmt.Sprintf("не короче %s символов", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("не более %s элементов", fe.Param())
		}
		return fmt.Sprintf("не длиннее %s символов", fe.Param())
	case "oneof":
		return "допустимые значения: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "некорректный email"
	case "email_domain":
		return "email с этим доменом не допускается"
	case "gt":
		return fmt.Sprintf("должно быть больше %s", fe.Param())
	default:
		return "некорректное значение"
	}
}

// decodeJSON проверяет Content-Type, читает тело и валидирует его
func (v *Validator) decodeJSON(r *http.Request, dst any) error {
	if !checkContentType(r, "application/json") {
		return service.NewValidationError("Content-Type", "должен быть application/json")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return service.NewValidationError("body", "неверное тело запроса: "+err.Error())
	}
	if n, ok := dst.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	return v.Struct(dst)
}
