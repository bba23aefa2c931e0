package common

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError converts validator failures into a 400 AppError listing the
// offending fields and the rule each one broke.
func ValidationError(err error) *AppError {
	appErr := NewAppError(CodeValidation, "invalid payload", http.StatusBadRequest, err)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[lowerFirst(fe.Field())] = fe.Tag()
	}
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
