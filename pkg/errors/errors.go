package errors

import "fmt"

// Error codes
const (
	CodeAPIError    = "API_ERROR"
	CodeValidation  = "VALIDATION_ERROR"
	CodeCache       = "CACHE_ERROR"
	CodeTranslation = "TRANSLATION_ERROR"
	CodeEmptyResult = "EMPTY_RESULT"
)

type BotError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

// APIError covers failed or malformed responses from the recipe catalog.
type APIError struct {
	*BotError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// ValidationError covers user input that does not match the expected shape.
// Recovered locally with a correction prompt; conversation state stays put.
type ValidationError struct {
	*BotError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*BotError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// TranslationError covers failures of the translation providers. A failed
// item never aborts the surrounding batch; callers fall back to the
// source-language text.
type TranslationError struct {
	*BotError
	SourceText string
}

func NewTranslationError(message, sourceText string, cause error) *TranslationError {
	return &TranslationError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeTranslation,
			StatusCode: 502,
			Context: map[string]any{
				"source_text": sourceText,
			},
			Cause: cause,
		},
		SourceText: sourceText,
	}
}

// EmptyResultError signals a category with no recipes. Informational for the
// user, never a crash.
type EmptyResultError struct {
	*BotError
	Category string
}

func NewEmptyResultError(category string) *EmptyResultError {
	return &EmptyResultError{
		BotError: &BotError{
			Message:    fmt.Sprintf("no recipes found for category %q", category),
			Code:       CodeEmptyResult,
			StatusCode: 404,
			Context: map[string]any{
				"category": category,
			},
		},
		Category: category,
	}
}
