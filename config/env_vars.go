// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	maxEnvironmentKeyValueParts = 2
	minQuotedValueLength        = 2
)

var (
	errExpectedPointerToStruct = errors.New("expected a pointer to a struct")
	errUnsupportedSliceType    = errors.New("unsupported slice type")
	errUnsupportedFieldType    = errors.New("unsupported field type")
)

var durationType = reflect.TypeFor[time.Duration]()

// environment is where `env:` tagged fields are read from: the process
// environment, then the variables of a .env file.
//
// The .env variables are kept here and never exported to the process, so each
// Load sees the file as it is on disk at that moment.
type environment struct {
	dotEnv map[string]string
}

// currentEnvironment reads the .env file that applies right now.
func currentEnvironment() environment {
	return environment{dotEnv: readDotEnv()}
}

// lookup returns the value of key and whether it is set anywhere.
func (e environment) lookup(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok {
		return value, true
	}

	value, ok := e.dotEnv[key]

	return value, ok
}

// apply populates the struct spec points to from its `env:` tags.
//
// A tag ending in ",overwrite" replaces whatever the field already holds;
// without it only zero fields are filled.
func (e environment) apply(spec any) error {
	structValue := reflect.ValueOf(spec)
	if structValue.Kind() != reflect.Ptr {
		return fmt.Errorf("%w, got %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structValue = structValue.Elem()
	if structValue.Kind() != reflect.Struct {
		return fmt.Errorf("%w, got a pointer to %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structType := structValue.Type()

	for fieldIndex := range structValue.NumField() {
		field := structValue.Field(fieldIndex)
		fieldType := structType.Field(fieldIndex)

		tag := fieldType.Tag.Get("env")
		if tag == "" || fieldType.Anonymous {
			if field.Kind() == reflect.Struct && field.CanAddr() {
				if err := e.apply(field.Addr().Interface()); err != nil {
					return err
				}
			}

			continue
		}

		name, options, _ := strings.Cut(tag, ",")

		value, ok := e.lookup(name)
		if !ok || !field.CanSet() {
			// defaults come from SetDefaults
			continue
		}

		if !slices.Contains(strings.Split(options, ","), "overwrite") && !isZero(field) {
			continue
		}

		if err := setField(field, value); err != nil {
			return fmt.Errorf("%s from %s (%q): %w", fieldType.Name, name, value, err)
		}
	}

	return nil
}

// setField parses value according to the kind of field and stores it.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("failed to parse duration: %w", err)
			}

			field.SetInt(int64(d))

			return nil
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse int: %w", err)
		}

		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("failed to parse float: %w", err)
		}

		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("failed to parse bool: %w", err)
		}

		field.SetBool(b)
	case reflect.Slice:
		// comma separated, blanks dropped
		if field.Type().Elem().Kind() != reflect.String {
			return errUnsupportedSliceType
		}

		items := []string{}

		for item := range strings.SplitSeq(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}

		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFieldType, field.Kind())
	}

	return nil
}

// isZero checks if a reflect.Value is its zero value.
func isZero(value reflect.Value) bool {
	switch value.Kind() {
	case reflect.String, reflect.Slice:
		return value.Len() == 0
	case reflect.Bool:
		return !value.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int() == 0
	case reflect.Float32, reflect.Float64:
		return value.Float() == 0
	case reflect.Struct:
		for fieldIndex := range value.NumField() {
			if !isZero(value.Field(fieldIndex)) {
				return false
			}
		}

		return true
	}

	return false
}

// readDotEnv returns the variables of the first .env file found in the
// current working directory or next to the binary.
//
// A missing or unreadable file yields no variables.
func readDotEnv() map[string]string {
	var candidates []string

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	} else {
		log.Warn().
			Err(err).
			Msg("Could not get current working directory")
	}

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}

	for _, envPath := range candidates {
		// #nosec G304 - envPath is the working directory or the binary's directory
		data, err := os.ReadFile(envPath)
		if os.IsNotExist(err) {
			log.Debug().
				Str("path", envPath).
				Msg("No .env file found, skipping")

			continue
		}

		if err != nil {
			log.Warn().
				Err(err).
				Str("path", envPath).
				Msg("Could not read .env file")

			return nil
		}

		vars := parseDotEnv(envPath, data)

		log.Info().
			Str("path", envPath).
			Int("variables", len(vars)).
			Msg("Loaded configuration from .env file")

		return vars
	}

	return nil
}

// parseDotEnv parses KEY=value lines. Blank lines and lines starting with #
// are ignored, and one pair of matching quotes around a value is removed.
func parseDotEnv(envPath string, data []byte) map[string]string {
	vars := make(map[string]string)

	for lineNumber, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", maxEnvironmentKeyValueParts)
		if len(parts) != maxEnvironmentKeyValueParts {
			log.Warn().
				Str("path", envPath).
				Int("line", lineNumber+1).
				Str("content", line).
				Msg("Invalid format in .env file")

			continue
		}

		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if len(value) >= minQuotedValueLength && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
			value = value[1 : len(value)-1]
		}

		vars[key] = value
	}

	return vars
}
