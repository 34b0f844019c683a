// Package conf parses configuration structs from environment variables,
// driven by `env` struct tags.
package conf

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Secret is a string that redacts itself when printed.
type Secret string

const secretMask = "*****"

// String implements fmt.Stringer.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return secretMask
}

// EnvGetter ...
type EnvGetter interface {
	Get(key string) string
}

// InputParser ...
type InputParser interface {
	Parse(input interface{}) error
}

type defaultInputParser struct {
	envGetter EnvGetter
}

// NewInputParser ...
func NewInputParser(envGetter EnvGetter) InputParser {
	return defaultInputParser{
		envGetter: envGetter,
	}
}

// Parse populates the struct pointed to by input from environment variables.
// Tag syntax: `env:"NAME"`, `env:"NAME,required"`, `env:"NAME,opt[a,b,c]"`.
func (p defaultInputParser) Parse(input interface{}) error {
	return parse(input, p.envGetter)
}

func parse(input interface{}, getter EnvGetter) error {
	value := reflect.ValueOf(input)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config must be a pointer to a struct, got %T", input)
	}

	structValue := value.Elem()
	structType := structValue.Type()

	for i := 0; i < structType.NumField(); i++ {
		tag, ok := structType.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}

		name, constraint := splitTag(tag)
		raw := getter.Get(name)

		if err := checkConstraint(name, raw, constraint); err != nil {
			return err
		}
		if raw == "" {
			continue
		}

		if err := setField(structValue.Field(i), raw); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}

	return nil
}

func splitTag(tag string) (name, constraint string) {
	parts := strings.SplitN(tag, ",", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

func checkConstraint(name, value, constraint string) error {
	switch {
	case constraint == "":
		return nil
	case constraint == "required":
		if value == "" {
			return fmt.Errorf("required input not set: %s", name)
		}
		return nil
	case strings.HasPrefix(constraint, "opt[") && strings.HasSuffix(constraint, "]"):
		if value == "" {
			return nil
		}
		options := strings.Split(strings.TrimSuffix(strings.TrimPrefix(constraint, "opt["), "]"), ",")
		for _, option := range options {
			if value == strings.TrimSpace(option) {
				return nil
			}
		}
		return fmt.Errorf("invalid value for %s: %s, available: %v", name, value, options)
	default:
		return fmt.Errorf("unknown tag constraint: %s", constraint)
	}
}

func setField(field reflect.Value, value string) error {
	switch field.Interface().(type) {
	case time.Duration:
		duration, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(duration))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", field.Type().Elem())
		}
		field.Set(reflect.ValueOf(strings.Split(value, "|")))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
