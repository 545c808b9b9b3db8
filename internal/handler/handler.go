package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
)

// WriteError maps a service error onto an HTTP status. Errors carrying their
// own status (pkg/errors) win, even when wrapped; anything else is a 500.
func WriteError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode()
	}
	c.JSON(status, NewErrorResponse(err.Error()))
}

// BindingError renders a request binding failure as one readable message per
// offending field instead of the validator's raw namespace dump.
func BindingError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs[i] = fmt.Sprintf("%s is required", fe.Field())
		case "oneof":
			msgs[i] = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
		case "gtfield":
			msgs[i] = fmt.Sprintf("%s must be after %s", fe.Field(), fe.Param())
		case "min":
			msgs[i] = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			msgs[i] = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		case "gte":
			msgs[i] = fmt.Sprintf("%s must not be negative", fe.Field())
		default:
			msgs[i] = fmt.Sprintf("%s is invalid", fe.Field())
		}
	}
	return strings.Join(msgs, "; ")
}

func MetricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}
