package attrs

import (
	"reflect"
	"strings"
)

// Source is anything that resolves attribute names. *Attributes and Map
// both qualify.
type Source interface {
	Lookup(name string) (any, bool)
}

// Map adapts a plain map to Source.
type Map map[string]any

// Lookup implements Source.
func (m Map) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Scan reads effective values from src into a struct using `attr` tags.
// Fields without a matching attribute are left at their zero value.
//
//	type display struct {
//	    Label string  `attr:"label"`
//	    Shape string  `attr:"shape"`
//	    Size  int     `attr:"minSize"`
//	    Ratio float64 `attr:"aspectRatio"`
//	}
//
//	var d display
//	attrs.Scan(node.Attrs(), &d)
func Scan(src Source, dst any) {
	if src == nil {
		return
	}
	if a, ok := src.(*Attributes); ok && a == nil {
		return
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := tagKey(t.Field(i))
		if key == "" {
			continue
		}
		val, ok := src.Lookup(key)
		if !ok || val == nil {
			continue
		}
		setField(v.Field(i), val)
	}
}

// From converts a struct into a map using `attr` tags.
// Fields tagged with "omitempty" are skipped when at their zero value.
func From(src any) map[string]any {
	v := reflect.ValueOf(src)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	m := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("attr")
		if tag == "" || tag == "-" {
			continue
		}
		key, omitempty := parseTag(tag)
		fv := v.Field(i)
		if omitempty && fv.IsZero() {
			continue
		}
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		m[key] = fv.Interface()
	}
	return m
}

// Apply sets every tagged field of src on a, in field order. It stops at
// the first rejected value.
func Apply(a *Attributes, src any) error {
	v := reflect.ValueOf(src)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	m := From(src)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := tagKey(t.Field(i))
		val, ok := m[key]
		if key == "" || !ok {
			continue
		}
		if err := a.Set(key, val); err != nil {
			return err
		}
	}
	return nil
}

func tagKey(f reflect.StructField) string {
	tag := f.Tag.Get("attr")
	if tag == "" || tag == "-" {
		return ""
	}
	key, _ := parseTag(tag)
	return key
}

func parseTag(tag string) (key string, omitempty bool) {
	parts := strings.SplitN(tag, ",", 2)
	key = parts[0]
	if len(parts) > 1 && parts[1] == "omitempty" {
		omitempty = true
	}
	return
}

func setField(fv reflect.Value, val any) {
	switch fv.Kind() {
	case reflect.String:
		if s, ok := val.(string); ok {
			fv.SetString(s)
		}

	case reflect.Int, reflect.Int64:
		switch n := val.(type) {
		case float64:
			fv.SetInt(int64(n))
		case int:
			fv.SetInt(int64(n))
		case int64:
			fv.SetInt(n)
		}

	case reflect.Float64:
		switch n := val.(type) {
		case float64:
			fv.SetFloat(n)
		case int:
			fv.SetFloat(float64(n))
		}

	case reflect.Bool:
		if b, ok := val.(bool); ok {
			fv.SetBool(b)
		}

	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.String {
			switch items := val.(type) {
			case []string:
				fv.Set(reflect.ValueOf(items))
			case []any:
				strs := make([]string, 0, len(items))
				for _, item := range items {
					if s, ok := item.(string); ok {
						strs = append(strs, s)
					}
				}
				fv.Set(reflect.ValueOf(strs))
			}
		}

	case reflect.Pointer:
		if fv.Type().Elem().Kind() == reflect.Float64 {
			if n, ok := val.(float64); ok {
				fv.Set(reflect.ValueOf(&n))
			}
		}
		if fv.Type().Elem().Kind() == reflect.Bool {
			if b, ok := val.(bool); ok {
				fv.Set(reflect.ValueOf(&b))
			}
		}
	}
}
