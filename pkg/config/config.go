// Package config loads service configuration from YAML files and environment
// variables using struct tags: env, default, required.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator interface allows config structs to implement custom validation logic.
// If a config struct implements this interface, validation will be automatically
// called after loading configuration from files and environment variables.
type Validator interface {
	Validate() error
}

// setFieldFromString assigns a string value to a struct field, converting
// according to the field's kind. time.Duration is handled before the kind
// switch because it is an int64 underneath.
func setFieldFromString(field reflect.Value, value string) error {
	if field.Type() == durationType {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("failed to convert %s to duration: %v", value, err)
		}
		field.SetInt(int64(duration))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %v", value, err)
		}
		field.SetInt(intVal)
	case reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to float64: %v", value, err)
		}
		field.SetFloat(floatVal)
	case reflect.Float32:
		floatVal, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("failed to convert %s to float32: %v", value, err)
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("failed to convert %s to bool: %v", value, err)
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		// Comma-separated string slices only
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		values := strings.Split(value, ",")
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, v := range values {
			slice.Index(i).SetString(strings.TrimSpace(v))
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

// processFields walks the struct and applies values from environment variables.
// It returns the set of fields that were explicitly set, keyed by struct type
// name + field name to avoid collisions between nested structs.
func processFields(val reflect.Value, typeOfT reflect.Type) (map[string]bool, error) {
	setFields := make(map[string]bool)

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typeOfT.Field(i)

		// Handle all nested structs recursively
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			embeddedSetFields, err := processFields(field, fieldType.Type)
			if err != nil {
				return nil, err
			}
			for k, v := range embeddedSetFields {
				setFields[k] = v
			}
			continue
		}

		tag := fieldType.Tag.Get("env")
		if tag == "" {
			continue
		}
		envVal := os.Getenv(tag)
		if envVal == "" {
			continue
		}

		if err := setFieldFromString(field, envVal); err != nil {
			return nil, err
		}
		setFields[typeOfT.Name()+"."+fieldType.Name] = true
	}
	return setFields, nil
}

// checkRequiredAndDefaults enforces required tags and applies default tags to
// fields that remained zero and were not explicitly set from the environment.
func checkRequiredAndDefaults(val reflect.Value, typeOfT reflect.Type, setFields map[string]bool) error {
	var result error
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typeOfT.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := checkRequiredAndDefaults(field, fieldType.Type, setFields); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}

		requiredTag := strings.ToLower(fieldType.Tag.Get("required"))
		fieldRequired := requiredTag == "true" || requiredTag == "1"
		defaultTag := fieldType.Tag.Get("default")
		if fieldRequired && defaultTag != "" { // a default satisfies required
			fieldRequired = false
		}

		if field.IsZero() && fieldRequired {
			result = multierror.Append(result, fmt.Errorf("required field env:%s / yaml:%s is missing",
				fieldType.Tag.Get("env"), fieldType.Tag.Get("yaml")))
			continue
		}

		fieldKey := typeOfT.Name() + "." + fieldType.Name
		if field.IsZero() && defaultTag != "" && !setFields[fieldKey] {
			if err := setFieldFromString(field, defaultTag); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result
}

// GetConfigFromEnvVars loads configuration from environment variables only.
// It processes struct tags: env, default, required.
// Example usage:
//
//	var cfg MyConfig
//	err := GetConfigFromEnvVars(&cfg)
func GetConfigFromEnvVars[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	typeOfT := val.Type()
	setFields, err := processFields(val, typeOfT)
	if err != nil {
		return err
	}
	err = checkRequiredAndDefaults(val, typeOfT, setFields)
	if err != nil {
		*dest = reflect.New(reflect.TypeOf(dest).Elem()).Elem().Interface().(T) // resets config to empty
		return err
	}

	// Run custom validation if the type implements Validator
	if validator, ok := any(*dest).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// GetConfig loads configuration from a YAML file first, then overlays
// environment variables. If filepath is empty, only environment variables are
// used. If allowFileErrors is true, file read/parse errors fall back to env
// vars only.
func GetConfig[T any](dest *T, filepath string, allowFileErrors bool) error {
	if filepath == "" {
		return GetConfigFromEnvVars(dest)
	}
	data, err := os.ReadFile(filepath)
	if err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	err = GetConfigFromEnvVars(dest)
	if err != nil {
		return err
	}

	if validator, ok := any(*dest).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}
