package handlers

import (
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/cleanteam/internal/attendance"
	"github.com/stwalsh4118/cleanteam/internal/billing"
	apierrors "github.com/stwalsh4118/cleanteam/internal/errors"
	"github.com/stwalsh4118/cleanteam/internal/lifecycle"
	"github.com/stwalsh4118/cleanteam/internal/middleware"
	"github.com/stwalsh4118/cleanteam/internal/services"
)

// teamParam is the path parameter carrying the team id.
const teamParam = middleware.TeamParam

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(requestFieldName)
	}
}

// requestFieldName reports validation failures under the json or form name
// the client sent.
func requestFieldName(field reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// respondBindError writes the response for a failed request binding.
func respondBindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// bindOptionalJSON binds a JSON body when one was sent. An empty body
// leaves req untouched.
func bindOptionalJSON(c *gin.Context, req interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// respondServiceError maps service-level errors to API error responses.
// Unknown errors are reported as internal errors with the fallback message.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrPropertyNotFound),
		errors.Is(err, services.ErrStaffNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, services.ErrNotAssigned),
		errors.Is(err, attendance.ErrNotTracking):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, lifecycle.ErrEmptyIssue),
		errors.Is(err, billing.ErrInvalidFilter):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}
