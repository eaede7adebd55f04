// Package config provides the default-valued configuration mapping consumed
// by the rescale configurators and the loss factory. Loading configuration
// from files is out of scope; callers hand in an already-populated mapping.
package config

import (
	"github.com/yzchen08/nequip/pkg/errors"
)

// Config is a configuration mapping with default-valued lookups. Values are
// free-form: a scale/shift entry may hold a statistic identifier string, a
// float64, or a []float64.
type Config map[string]interface{}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Get returns the value for key, or def when absent. A present nil value is
// returned as nil, so "explicitly disabled" is distinguishable from "use the
// default".
func (c Config) Get(key string, def interface{}) interface{} {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

// GetBool returns the boolean at key, or def when absent. A non-boolean
// value fails with a configuration error.
func (c Config) GetBool(key string, def bool) (bool, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.NewConfigError(key, "expected a boolean", v)
	}
	return b, nil
}

// GetInt returns the integer at key, or def when absent. Float values with
// an integral value are accepted, matching how deserialized configuration
// often arrives.
func (c Config) GetInt(key string, def int) (int, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, errors.NewConfigError(key, "expected an integer", v)
}

// GetStringSlice returns the string slice at key, or def when absent.
// []interface{} holding strings is accepted.
func (c Config) GetStringSlice(key string, def []string) ([]string, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return def, nil
	}
	switch s := v.(type) {
	case []string:
		return s, nil
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, errors.NewConfigError(key, "expected a list of strings", v)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, errors.NewConfigError(key, "expected a list of strings", v)
}

// GetStringMap returns the nested mapping at key, or an empty map when
// absent.
func (c Config) GetStringMap(key string) (map[string]map[string]interface{}, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return map[string]map[string]interface{}{}, nil
	}
	m, ok := v.(map[string]map[string]interface{})
	if !ok {
		return nil, errors.NewConfigError(key, "expected a mapping of field to parameters", v)
	}
	return m, nil
}
