package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound возвращается когда запись не найдена или принадлежит другому пользователю
	ErrNotFound = errors.New("not found")

	// ErrValidation возвращается при некорректных входных данных
	ErrValidation = errors.New("validation failed")

	// ErrConflict возвращается при нарушении уникальности или удалении используемой записи
	ErrConflict = errors.New("integrity conflict")
)

// ValidationError carries per-field messages so forms can be re-rendered.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil lets callers write `return v.OrNil()` without returning a typed nil.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is a shortcut for a single-field validation error.
func Invalid(field, msg string) error {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}
