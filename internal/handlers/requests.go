package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/nfrund/organizapp/internal/domain"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a CustomValidator sharing the domain's validator,
// so custom tags such as "printable" work in request structs too.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: domain.Validator()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// SessionRequest is the body of POST /api/session.
type SessionRequest struct {
	Name string `json:"name" form:"name" validate:"required,printable,max=50"`
}
