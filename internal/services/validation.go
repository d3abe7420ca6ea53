package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	badgeIDPattern    = regexp.MustCompile(`^\d{5,6}$`)
	credentialPattern = regexp.MustCompile(`^\d{5}$`)
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationError carries field-level messages for a malformed submission.
// No mutation has been attempted when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "datos de la solicitud inválidos"
}

// ValidationHelper provides shared validation functionality, with the ledger's
// domain formats registered: legajo (5-6 digits) and credencial (5 digits).
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterValidation("legajo", func(fl validator.FieldLevel) bool {
		return badgeIDPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("credencial", func(fl validator.FieldLevel) bool {
		return credentialPattern.MatchString(fl.Field().String())
	})
	return &ValidationHelper{validator: v}
}

// ValidateStruct validates a struct, converting failures into a ValidationError
// with one localized message per offending field.
func (vh *ValidationHelper) ValidateStruct(s any) error {
	err := vh.validator.Struct(s)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Todos los campos son obligatorios"
	case "legajo":
		return "El número de legajo debe tener entre 5 y 6 dígitos"
	case "credencial":
		return "La credencial debe tener exactamente 5 dígitos"
	case "gte":
		return fmt.Sprintf("El valor debe ser mayor o igual a %s", fe.Param())
	case "min":
		return fmt.Sprintf("El valor debe tener al menos %s caracteres", fe.Param())
	default:
		return fmt.Sprintf("Validación fallida en la regla '%s'", fe.Tag())
	}
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Details: details})
}
