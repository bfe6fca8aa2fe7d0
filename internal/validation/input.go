package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

// Лимиты пользовательского текста.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxMessageLength     = 2000
	MaxNotesLength       = 2000
	MaxLocationLength    = 200
	MaxReasonLength      = 1000
)

// ValidateLength проверяет длину строки в символах. max <= 0 отключает верхнюю границу.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(strings.TrimSpace(value))
	if min > 0 && length < min {
		if min == 1 {
			return apperror.New(apperror.ErrCodeValidation, fieldName+" is required")
		}
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s must be at least %d characters", fieldName, min))
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s must be at most %d characters", fieldName, max))
	}
	return nil
}

// ValidateOptional как ValidateLength для необязательного поля: nil допустим.
func ValidateOptional(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, *value, 0, max)
}

// Field пара имя/значение для ValidateAll.
type Field struct {
	Name  string
	Value *string
	Max   int
}

// ValidateAll возвращает первую ошибку среди необязательных полей.
func ValidateAll(fields ...Field) error {
	for _, f := range fields {
		if err := ValidateOptional(f.Name, f.Value, f.Max); err != nil {
			return err
		}
	}
	return nil
}
