package sorting

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Fielder is implemented by records that expose their own sort keys.
// SortField returns (nil, true) for a field that exists but holds no value,
// and (nil, false) for an unknown key. Both sort as missing.
type Fielder interface {
	SortField(key string) (any, bool)
}

// ByKey builds a comparator over a named field. Records implementing
// Fielder are asked directly; anything else is inspected by reflection,
// matching exported struct fields by `sort` tag, `json` tag or
// case-insensitive name.
//
// Missing values order before present ones, numbers compare arithmetically
// and everything else compares as text ignoring case and accents. Desc
// reverses the result.
func ByKey[T any](key string, dir Direction) Comparator[T] {
	// collate.Collator keeps internal buffers, so each comparator owns one.
	col := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)

	return func(a, b T) int {
		res := compareValues(col, fieldValue(a, key), fieldValue(b, key))
		if dir == Desc {
			return -res
		}
		return res
	}
}

func compareValues(col *collate.Collator, a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	return col.CompareString(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// fieldValue resolves key on item, returning nil when the field is absent
// or holds a nil pointer/interface.
func fieldValue(item any, key string) any {
	if f, ok := item.(Fielder); ok {
		v, _ := f.SortField(key)
		return deref(v)
	}

	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return structField(rv, key)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		mv := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil
		}
		return deref(mv.Interface())
	}
	return nil
}

func structField(rv reflect.Value, key string) any {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tagName(sf.Tag.Get("sort")) == key ||
			tagName(sf.Tag.Get("json")) == key ||
			strings.EqualFold(sf.Name, key) {
			return deref(rv.Field(i).Interface())
		}
	}
	return nil
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
