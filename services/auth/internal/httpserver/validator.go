package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
)

var fieldMessages = map[string]string{
	"required":         "is required",
	"required_without": "is required",
	"email":            "must be a valid email address",
	"min":              "must be at least %s characters long",
	"max":              "must be no longer than %s characters",
	"eqfield":          "must match %s",
	"uuid":             "must be a valid token",
	"url":              "must be a valid URL",
	"strongpassword":   "must have 8 characters with upper and lower case letters, a digit and one of !@#$%^&*",
}

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return domain.StrongPassword(fl.Field().String())
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	he := echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"message": domain.KindValidation.String(),
		"fields":  fields,
	})
	he.Internal = domain.E(domain.KindValidation, "http.validate", err)
	return he
}

func fieldMessage(fe validator.FieldError) string {
	msg, ok := fieldMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		param := fe.Param()
		if fe.Tag() == "eqfield" {
			param = "password"
		}
		return fmt.Sprintf(msg, param)
	}
	return msg
}
