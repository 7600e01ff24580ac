package attrs

import (
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/teranos/tygra/errors"
)

// KindOf infers the kind of a Go value.
func KindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case int, int32, int64:
		return KindInt
	case float32, float64:
		return KindFloat
	case []string:
		return KindSet
	default:
		return KindString
	}
}

func equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Coerce converts v to a value of kind. Integers widen to floats and
// integral floats narrow to ints; any other mismatch is ErrTypeMismatch.
// An empty kind accepts anything.
func Coerce(kind Kind, v any) (any, error) {
	mismatch := func() (any, error) {
		return nil, errors.Wrapf(errors.ErrTypeMismatch, "%T value %v for %s attribute", v, v, kind)
	}
	switch kind {
	case "":
		return v, nil
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		case float32:
			if f := float64(n); f == math.Trunc(f) {
				return int(f), nil
			}
		case float64:
			if n == math.Trunc(n) && !math.IsInf(n, 0) {
				return int(n), nil
			}
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindSet:
		if items, ok := v.([]string); ok {
			return items, nil
		}
	case KindString, KindText, KindChoices:
		if str, ok := v.(string); ok {
			return str, nil
		}
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "attribute kind %q", kind)
	}
	return mismatch()
}

// Format renders v as text for the given kind. Sets are sorted and
// comma separated. A value that cannot be coerced to kind is an error.
func Format(kind Kind, v any) (string, error) {
	if kind == "" {
		kind = KindOf(v)
	}
	c, err := Coerce(kind, v)
	if err != nil {
		return "", err
	}
	switch kind {
	case KindSet:
		items := slices.Clone(c.([]string))
		slices.Sort(items)
		return strings.Join(items, ","), nil
	case KindBool:
		return strconv.FormatBool(c.(bool)), nil
	case KindInt:
		return strconv.Itoa(c.(int)), nil
	case KindFloat:
		return strconv.FormatFloat(c.(float64), 'g', -1, 64), nil
	default:
		return c.(string), nil
	}
}

// Parse reads text produced by Format back into a value of kind.
func Parse(kind Kind, s string) (any, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidRequest, "bool attribute %q", s)
		}
		return b, nil
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidRequest, "int attribute %q", s)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidRequest, "float attribute %q", s)
		}
		return f, nil
	case KindSet:
		if s == "" {
			return []string{}, nil
		}
		return strings.Split(s, ","), nil
	case KindString, KindText, KindChoices, "":
		return s, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "attribute kind %q", kind)
	}
}
