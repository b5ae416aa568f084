package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var configureBinding sync.Once

// ConfigureBinding makes gin reject unknown JSON fields, so id, sessionId and status
// can never be smuggled into a write, and reports validation failures by JSON name.
func ConfigureBinding() {
	configureBinding.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// bindJSON decodes and validates the body into obj. On failure it writes the
// 400 response and returns false.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	problems := bindingProblems(err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "Invalid request body",
		"errors": problems,
	})
	return false
}

func bindingProblems(err error) []models.ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]models.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, models.ValidationError{Field: fe.Field(), Reason: reasonFor(fe)})
		}
		return out
	}

	var fieldErr *models.ValidationError
	if errors.As(err, &fieldErr) {
		return []models.ValidationError{*fieldErr}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []models.ValidationError{{Field: typeErr.Field, Reason: "has the wrong type"}}
	}

	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return []models.ValidationError{{Field: "body", Reason: "is required"}}
	case errors.As(err, &syntaxErr):
		return []models.ValidationError{{Field: "body", Reason: "is not valid JSON"}}
	}

	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return []models.ValidationError{{Field: strings.Trim(rest, `"`), Reason: "is not allowed"}}
	}
	return []models.ValidationError{{Field: "body", Reason: msg}}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "url", "http_url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
