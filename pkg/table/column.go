// Package table implements the generic paginated data table: a declarative
// column mapping and a controller that accumulates pages as the user scrolls.
package table

import (
	"fmt"
	"reflect"
	"strconv"
)

// Placeholder is rendered for cells whose value is absent.
const Placeholder = "—"

// Row is a display row. IDs are unique within a dataset.
type Row interface {
	RowID() string
}

// Column maps one field of a row to a table column.
type Column[T any] struct {
	// Key names the field, e.g. "createdAt".
	Key string
	// Header is the column title.
	Header string
	// Value extracts the field from a row.
	Value func(T) any
	// Render formats a present value. Nil means default text coercion.
	Render func(any) string
	// Width is a rendering hint in cells (0 = auto).
	Width int
}

// DisplayValue returns the text shown for a cell.
func DisplayValue[T any](col Column[T], row T) string {
	if col.Value == nil {
		return Placeholder
	}

	v := col.Value(row)
	if IsAbsent(v) {
		return Placeholder
	}

	if col.Render != nil {
		return col.Render(v)
	}
	return Text(v)
}

// Headers returns the header labels in column order.
func Headers[T any](cols []Column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// RowValues returns the display values of a row in column order.
func RowValues[T any](cols []Column[T], row T) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = DisplayValue(c, row)
	}
	return out
}

// IsAbsent reports whether v should render as the placeholder:
// nil, a nil pointer, or an empty string.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// Text coerces a value to text.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return Placeholder
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Placeholder
		}
		return Text(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}
