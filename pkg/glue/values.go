// SPDX-License-Identifier: MPL-2.0

package glue

import (
	"maps"
	"slices"
)

// Unset is the value of an option no layer provided and that has no default.
// It is distinct from every value a user can set, including "".
var Unset = UnsetValue{}

type (
	// UnsetValue is the type of Unset.
	UnsetValue struct{}

	// Values maps option names to resolved values. Values are typed by the
	// option declaration: string, int, bool, float64 or []string.
	Values map[string]any
)

// String implements fmt.Stringer.
func (UnsetValue) String() string { return "<unset>" }

// IsUnset reports whether v is the Unset sentinel.
func IsUnset(v any) bool {
	_, ok := v.(UnsetValue)
	return ok
}

// Get returns the value of key, or Unset when key is absent.
func (v Values) Get(key string) any {
	val, ok := v[key]
	if !ok {
		return Unset
	}
	return val
}

// IsSet reports whether key holds a value other than Unset.
func (v Values) IsSet(key string) bool {
	return !IsUnset(v.Get(key))
}

// String returns the string value of key, or "" when unset.
func (v Values) String(key string) string {
	s, _ := v.Get(key).(string)
	return s
}

// Int returns the integer value of key, or 0 when unset.
func (v Values) Int(key string) int {
	i, _ := v.Get(key).(int)
	return i
}

// Bool returns the boolean value of key, or false when unset.
func (v Values) Bool(key string) bool {
	b, _ := v.Get(key).(bool)
	return b
}

// Float returns the float value of key, or 0 when unset.
func (v Values) Float(key string) float64 {
	f, _ := v.Get(key).(float64)
	return f
}

// Strings returns a copy of the list value of key, or nil when unset.
func (v Values) Strings(key string) []string {
	list, _ := v.Get(key).([]string)
	return slices.Clone(list)
}

// Clone returns a copy of v. List values are copied.
func (v Values) Clone() Values {
	c := maps.Clone(v)
	for key, val := range c {
		if list, ok := val.([]string); ok {
			c[key] = slices.Clone(list)
		}
	}
	return c
}
