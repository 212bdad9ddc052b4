package app

import (
	"errors"
	"fmt"
	"net/http"

	"pagebuilder/internal/publish"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeIncorrectPassword  = "INCORRECT_PASSWORD"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeLocked             = "LOCKED"
	CodeInvalidUpload      = "INVALID_UPLOAD"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func notFound() *DomainError {
	return domainError(http.StatusNotFound, CodeNotFound, "Not found", nil)
}

func incorrectPassword() *DomainError {
	return domainError(http.StatusUnauthorized, CodeIncorrectPassword, "Incorrect password.", nil)
}

func validationFailed(field, message string) *DomainError {
	var details any
	if field != "" {
		details = map[string]string{"field": field}
	}
	return domainError(http.StatusUnprocessableEntity, CodeValidation, message, details)
}

// asValidation converts publish rule failures into domain errors and passes
// everything else through.
func asValidation(err error) error {
	var ve *publish.ValidationError
	if errors.As(err, &ve) {
		return validationFailed(ve.Field, ve.Message)
	}
	return err
}

func locked(slug string) *DomainError {
	return domainError(http.StatusUnauthorized, CodeLocked, "This page is password protected.", map[string]string{"slug": slug})
}
