package handlers

import (
	"errors"
	"log"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/monocle-dev/taskhub/internal/apperrors"
)

func respondError(ctx *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)

	if status >= 500 {
		log.Printf("%s %s failed: %v", ctx.Request.Method, ctx.FullPath(), err)
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": apperrors.Body(err)})
}

// bindJSON decodes the body into dest and reports binding failures as a
// ValidationError listing every offending field.
func bindJSON(ctx *gin.Context, dest any) bool {
	jsonFieldNames.Do(useJSONFieldNames)

	err := ctx.ShouldBindJSON(dest)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperrors.FieldError{
				Field:   fe.Field(),
				Message: describe(fe),
			})
		}
		respondError(ctx, &apperrors.ValidationError{Message: "Invalid request", Fields: fields})
		return false
	}

	log.Printf("Failed to bind JSON: %v", err)
	respondError(ctx, &apperrors.ValidationError{Message: "Invalid request body"})
	return false
}

var jsonFieldNames sync.Once

// useJSONFieldNames makes validation errors name fields by their json tag.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
