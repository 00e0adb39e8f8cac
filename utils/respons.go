package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgInvalidToken     = "Given token not valid for any token type"
	MsgNoPermission     = "You do not have permission to perform this action."
	MsgNotFound         = "Not found."
)

func RespondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// RespondError writes {"error": msg}.
func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"error": err.Error()})
}

// RespondDetail writes {"detail": msg}, the shape used for auth and lookup failures.
func RespondDetail(c *gin.Context, code int, detail string) {
	c.JSON(code, gin.H{"detail": detail})
}

func RespondNotFound(c *gin.Context) {
	RespondDetail(c, http.StatusNotFound, MsgNotFound)
}

// RespondValidation turns a binding error into a per-field 400 response.
// Errors that are not validator errors (malformed JSON, type mismatch)
// are reported under "error".
func RespondValidation(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		RespondError(c, http.StatusBadRequest, err)
		return
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fieldName(fe)
		fields[name] = append(fields[name], validationMessage(fe))
	}
	c.JSON(http.StatusBadRequest, fields)
}

// RespondFieldError writes a single field error.
func RespondFieldError(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, map[string][]string{field: {message}})
}

func fieldName(fe validator.FieldError) string {
	// binding tags are registered with json names, see RegisterValidators
	if name := fe.Field(); name != "" {
		return name
	}
	return strings.ToLower(fe.StructField())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es requerido."
	case "email":
		return "Introduzca una dirección de correo electrónico válida."
	case "estado":
		return fmt.Sprintf("\"%v\" no es una elección válida.", fe.Value())
	case "oneof":
		return fmt.Sprintf("\"%v\" no es una elección válida.", fe.Value())
	case "max":
		return fmt.Sprintf("Asegúrese de que este campo no tenga más de %s caracteres.", fe.Param())
	default:
		return fmt.Sprintf("Valor inválido (%s).", fe.Tag())
	}
}
