package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
)

// SetupValidator must run before the first request is bound. It makes
// validator report json (or form) names and makes unknown JSON fields an
// error, so a client cannot smuggle "price" into a cart line.
func SetupValidator() {
	binding.EnableDecoderDisallowUnknownFields = true
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
		}
		return name
	})
}

// HandleValidationError answers 400 VALIDATION_FAILED for a bind error.
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed", c.GetString(RequestIDCtxKey), validationDetails(err)))
}

func validationDetails(err error) []dto.ValidationDetail {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]dto.ValidationDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return out
	}
	if name, ok := unknownJSONField(err); ok {
		return []dto.ValidationDetail{{Field: name, Message: "Unknown field"}}
	}
	return nil
}

// unknownJSONField pulls x out of encoding/json's `json: unknown field "x"`.
func unknownJSONField(err error) (string, bool) {
	_, rest, found := strings.Cut(err.Error(), `json: unknown field "`)
	if !found {
		return "", false
	}
	return strings.TrimSuffix(rest, `"`), true
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"url":      "Invalid URL format",
	"dive":     "Invalid element",
}

var paramMessages = map[string]string{
	"len":   "Must be exactly %s characters",
	"oneof": "Must be one of: %s",
	"gt":    "Must be greater than %s",
	"gte":   "Must be greater than or equal to %s",
	"lt":    "Must be less than %s",
	"lte":   "Must be less than or equal to %s",
}

func validationMessage(fe validator.FieldError) string {
	tag := fe.Tag()
	if msg, ok := fixedMessages[tag]; ok {
		return msg
	}
	if tmpl, ok := paramMessages[tag]; ok {
		return strings.Replace(tmpl, "%s", fe.Param(), 1)
	}
	if tag == "min" || tag == "max" {
		bound := "at least "
		if tag == "max" {
			bound = "at most "
		}
		msg := "Must be " + bound + fe.Param()
		if fe.Kind() == reflect.String {
			msg += " characters"
		}
		return msg
	}
	return "Invalid value"
}
