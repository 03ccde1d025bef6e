package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/research-match-api/internal/middleware"
	"github.com/noah-isme/research-match-api/internal/models"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
	"github.com/noah-isme/research-match-api/pkg/response"
)

func init() {
	// payloads carrying fields the API does not know are rejected
	binding.EnableDecoderDisallowUnknownFields = true
}

// currentUser returns the authenticated user or writes 401 and returns nil.
func currentUser(c *gin.Context) *models.User {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required"))
		return nil
	}
	return user
}

// optionalUser returns the authenticated user when present.
func optionalUser(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

// bindJSON decodes the request body into dest and writes a 400 envelope on
// failure. It reports whether the handler may continue.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, bindError(err, message))
		return false
	}
	return true
}

// bindQuery decodes query parameters into dest.
func bindQuery(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func bindError(err error, message string) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		appErr.Message = "request body is required"
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		appErr.Details = []appErrors.FieldError{{Field: field, Message: "must be a " + typeErr.Type.String()}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		appErr.Message = "malformed JSON body"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		appErr.Details = []appErrors.FieldError{{Field: field, Message: "is not allowed"}}
	}
	return appErr
}
