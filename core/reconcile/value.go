package reconcile

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind enumerates the value shapes a mutation payload can carry.
type Kind int

const (
	// KindNull is an explicit null.
	KindNull Kind = iota
	// KindString is a text value.
	KindString
	// KindNumber is a numeric value (JSON numbers are float64).
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindList is an ordered sequence of values.
	KindList
	// KindObject is a string-keyed map of values.
	KindObject
)

// Value is a closed variant over the JSON value space. Mutation payloads are
// open field bags on the wire, but inside the engine every value is one of
// these six kinds, which makes deep equality and serialization exhaustive.
type Value struct {
	Kind   Kind
	Str    string
	Num    float64
	Bool   bool
	List   []Value
	Object map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number wraps a number.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// List wraps a sequence of values.
func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

// Object wraps a map of values.
func Object(fields map[string]Value) Value { return Value{Kind: KindObject, Object: fields} }

// Equal reports deep equality between two values. A list equals another list
// only element-for-element in order; objects must agree on the exact key set.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Object) != len(other.Object) {
			return false
		}
		for key, val := range v.Object {
			otherVal, ok := other.Object[key]
			if !ok || !val.Equal(otherVal) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Native converts the value back to its plain Go representation
// (nil, string, float64, bool, []any, map[string]any).
func (v Value) Native() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		items := make([]any, len(v.List))
		for i, item := range v.List {
			items[i] = item.Native()
		}
		return items
	case KindObject:
		fields := make(map[string]any, len(v.Object))
		for key, val := range v.Object {
			fields[key] = val.Native()
		}
		return fields
	default:
		return nil
	}
}

// MarshalJSON encodes the value as its plain JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindObject:
		// Sort keys for deterministic output (map iteration order is random).
		keys := make([]string, 0, len(v.Object))
		for key := range v.Object {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, key := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyJSON, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			valJSON, err := json.Marshal(v.Object[key])
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyJSON...)
			buf = append(buf, ':')
			buf = append(buf, valJSON...)
		}
		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// UnmarshalJSON decodes any JSON value into the variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromNative(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromNative converts a plain decoded JSON value (as produced by
// encoding/json into any) to a Value.
func FromNative(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case bool:
		return Bool(x), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			parsed, err := FromNative(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = parsed
		}
		return Value{Kind: KindList, List: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for key, item := range x {
			parsed, err := FromNative(item)
			if err != nil {
				return Value{}, err
			}
			fields[key] = parsed
		}
		return Object(fields), nil
	default:
		return Value{}, fmt.Errorf("unsupported payload value of type %T", raw)
	}
}
