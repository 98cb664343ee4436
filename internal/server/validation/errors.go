// Package validation checks request DTOs and uploaded images and reports
// failures per field.
package validation

import (
	"sort"
	"strings"
)

// Errors maps a field name to its failure messages.
type Errors struct {
	Fields map[string][]string
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed")
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[k], " "))
	}
	return b.String()
}

func (e *Errors) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *Errors) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e as an error, or nil when no field failed.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// FieldError builds a single-field validation error.
func FieldError(field, msg string) *Errors {
	e := &Errors{}
	e.Add(field, msg)
	return e
}
