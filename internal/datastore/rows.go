package datastore

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/lepinkainen/bookshelf/internal/catalog"
)

// RowOptions configures StructToRow.
type RowOptions struct {
	OmitFields   map[string]bool
	KeyOverrides map[string]string
}

// StructToRow converts a struct into a row keyed by snake_case field names.
// Nil pointers become nil, times are written as RFC 3339 strings and
// embedded structs are flattened.
func StructToRow[T any](value T, opts RowOptions) map[string]any {
	result := make(map[string]any)
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return result
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return result
	}

	appendFields(v, opts, result)
	return result
}

func appendFields(v reflect.Value, opts RowOptions, result map[string]any) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			appendFields(v.Field(i), opts, result)
			continue
		}
		if opts.OmitFields[field.Name] {
			continue
		}

		key := toSnakeCase(field.Name)
		if override, ok := opts.KeyOverrides[field.Name]; ok {
			key = override
		}
		result[key] = rowValue(v.Field(i))
	}
}

func rowValue(fv reflect.Value) any {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}

	switch val := fv.Interface().(type) {
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(val, ",")
	default:
		return val
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// BookRows maps catalog books to Datasette rows. The year column keeps the
// catalog's publish_year name.
func BookRows(books []catalog.ExportedBook) []map[string]any {
	opts := RowOptions{KeyOverrides: map[string]string{"Year": "publish_year"}}
	rows := make([]map[string]any, 0, len(books))
	for _, book := range books {
		rows = append(rows, StructToRow(book, opts))
	}
	return rows
}
