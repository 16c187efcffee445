package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Email string `json:"email" binding:"required,email"`
	Age   int    `json:"age" binding:"required,min=18"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var in signupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	w, resp := postJSON(validationRouter(), `{"email": "invalid", "age": 10}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid email format", fields["email"])
	assert.Equal(t, "Must be at least 18", fields["age"])
}

func TestHandleValidationError_UnknownField(t *testing.T) {
	w, resp := postJSON(validationRouter(), `{"email": "a@b.co", "age": 20, "price": "0.01"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "price", resp.Error.Details[0].Field)
}

func TestHandleValidationError_ValidInput(t *testing.T) {
	w, _ := postJSON(validationRouter(), `{"email": "test@example.com", "age": 25}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Max      string `validate:"max=3"`
		UUID     string `validate:"omitempty,uuid"`
		OneOf    string `validate:"omitempty,oneof=a b c"`
		GT       int    `validate:"gt=0"`
	}

	err := validator.New().Struct(input{Max: "toolong", UUID: "nope", OneOf: "d"})
	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	got := map[string]string{}
	for _, e := range verrs {
		got[e.Field()] = validationMessage(e)
	}
	assert.Equal(t, map[string]string{
		"Required": "This field is required",
		"Min":      "Must be at least 5 characters",
		"Max":      "Must be at most 3 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: a b c",
		"GT":       "Must be greater than 0",
	}, got)
}
