package handlers

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator реализует echo.Validator поверх go-playground/validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate проверяет теги validate у структуры запроса.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
