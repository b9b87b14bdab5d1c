// Package validation validates inbound article payloads using struct
// tags, returning the pipeline's own ValidationError shape instead of
// leaking the validator library's error type to callers.
package validation

import (
	"strings"
	"sync"

	"github.com/andinanews/pipeline/domain"
	"github.com/andinanews/pipeline/errs"
	"github.com/go-playground/validator/v10"
)

const minContentLength = 50

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("min_content_length", minContentLengthRule)
	})
	return validate
}

func minContentLengthRule(fl validator.FieldLevel) bool {
	return len(strings.TrimSpace(fl.Field().String())) >= minContentLength
}

// Article validates an inbound Article, returning nil if it passes
// every struct-tag rule and the minimum content-length check.
func Article(a domain.Article) *errs.ValidationError {
	v := instance()

	var fields []errs.FieldError

	if err := v.Struct(a); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, errs.FieldError{
					Field: fe.Namespace(),
					Error: describe(fe),
				})
			}
		} else {
			fields = append(fields, errs.FieldError{Field: "article", Error: err.Error()})
		}
	}

	if len(strings.TrimSpace(a.ContentText)) < minContentLength {
		fields = append(fields, errs.FieldError{
			Field: "Article.ContentText",
			Error: "content_text must be at least 50 characters",
		})
	}

	if len(fields) == 0 {
		return nil
	}
	return &errs.ValidationError{Fields: fields}
}

// Fragment validates an inbound Fragment submitted directly via
// /procesar_fragmento, returning nil if it passes every struct-tag rule.
func Fragment(f domain.Fragment) *errs.ValidationError {
	v := instance()

	var fields []errs.FieldError

	if err := v.Struct(f); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, errs.FieldError{
					Field: fe.Namespace(),
					Error: describe(fe),
				})
			}
		} else {
			fields = append(fields, errs.FieldError{Field: "fragment", Error: err.Error()})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &errs.ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	default:
		return "failed validation rule: " + fe.Tag()
	}
}
