package core

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Mapper resolves result columns to struct fields of T.
type Mapper[T any] struct {
	columns []string
	index   map[string][]int
}

// NewMapper reflects on T once. Columns come from the `db` tag when present,
// otherwise from the snake_case field name. `db:"-"` skips a field.
func NewMapper[T any]() (*Mapper[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", typ)
	}
	m := &Mapper[T]{index: map[string][]int{}}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		col := f.Tag.Get("db")
		if col == "-" {
			continue
		}
		if col == "" {
			col = SnakeCase(f.Name)
		}
		m.columns = append(m.columns, col)
		m.index[strings.ToLower(col)] = f.Index
	}
	if len(m.columns) == 0 {
		return nil, fmt.Errorf("model %s has no mapped fields", typ)
	}
	return m, nil
}

// Columns returns the mapped column names in field order.
func (m *Mapper[T]) Columns() []string {
	return m.columns
}

// Targets returns scan destinations for item, one per result column.
// Columns with no matching field are scanned and discarded.
func (m *Mapper[T]) Targets(item *T, columns []string) []interface{} {
	v := reflect.ValueOf(item).Elem()
	targets := make([]interface{}, len(columns))
	for i, col := range columns {
		idx, ok := m.index[strings.ToLower(col)]
		if !ok {
			targets[i] = new(interface{})
			continue
		}
		targets[i] = v.FieldByIndex(idx).Addr().Interface()
	}
	return targets
}

// SnakeCase converts a Go identifier such as UserProfile to user_profile.
func SnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
