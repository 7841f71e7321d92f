// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
genconfig writes the example configuration files in deploy/ from the defaults.

	go run ./cmd/genconfig
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/config.yaml.example"
	filePerm       = 0o644
	dirPerm        = 0o755

	envFileHeader = `# Kiseki configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# Kiseki configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
	secretComment = "Required. Generate one with go run ./cmd/gentoken -newkey"
)

func main() {
	audit.SetDefaultLogger()

	if err := os.MkdirAll(filepath.Dir(envOutputFile), dirPerm); err != nil {
		log.Fatal().Err(err).Msg("Failed to create deploy directory")
	}

	generateEnvFile()
	generateYAMLFile()
}

// generateEnvFile generates the deploy/.env.example file.
func generateEnvFile() {
	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	var (
		sb      strings.Builder
		general strings.Builder
	)

	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	// Top-level fields are either sections (structs) or general settings.
	for i := range typ.NumField() {
		structField := typ.Field(i)
		structValue := val.Field(i)

		if structValue.Kind() != reflect.Struct {
			writeEnvField(&general, structField, structValue)

			continue
		}

		if structField.Name == "Build" {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n", structField.Name)

		// Iterate over the fields of the nested struct.
		innerTyp := structValue.Type()
		for j := range innerTyp.NumField() {
			writeEnvField(&sb, innerTyp.Field(j), structValue.Field(j))
		}

		sb.WriteString("\n")
	}

	sb.WriteString("## General\n" + general.String())

	if err := os.WriteFile(envOutputFile, []byte(sb.String()), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", envOutputFile).Msg("Failed to write .env.example file")
	}

	log.Info().Str("path", envOutputFile).Msg("Successfully generated .env.example")
}

func writeEnvField(sb *strings.Builder, field reflect.StructField, value reflect.Value) {
	tag, ok := field.Tag.Lookup("env")
	if !ok {
		return
	}

	envVarName := strings.Split(tag, ",")[0]

	switch {
	case envVarName == "KISEKI_SECRET":
		fmt.Fprintf(sb, "# %s\n%s=\n", secretComment, envVarName)
	case envVarName == "KISEKI_PORT" || envVarName == "KISEKI_HOST":
		// Uncomment essential fields.
		fmt.Fprintf(sb, "%s=\"%v\"\n", envVarName, value.Interface())
	case value.Kind() == reflect.Slice:
		items := make([]string, value.Len())
		for k := range value.Len() {
			items[k] = value.Index(k).String()
		}

		fmt.Fprintf(sb, "# %s=%s\n", envVarName, strings.Join(items, ","))
	case value.Kind() == reflect.String && value.Len() == 0:
		fmt.Fprintf(sb, "# %s=\n", envVarName)
	default:
		fmt.Fprintf(sb, "# %s=%v\n", envVarName, value.Interface())
	}
}

// generateYAMLFile generates the deploy/config.yaml.example file.
func generateYAMLFile() {
	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	var yamlContent strings.Builder
	// Marshal the config to YAML.
	encoderOpts := []yaml.EncodeOption{
		config.GetDurationEncoderOption(),
		yaml.Indent(2),
		yaml.IndentSequence(true),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	// Process the marshaled YAML line-by-line to create a clean template.
	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys without a value (e.g., "basic:") are treated as section headers.
		if !strings.HasPrefix(line, " ") && strings.HasSuffix(trimmed, ":") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		indent := strings.Repeat(" ", indentSize)

		// Keep the secret uncommented so that it is filled in.
		if strings.HasPrefix(trimmed, "secret:") {
			fmt.Fprintf(&sb, "%s# -- %s\n%s\n", indent, secretComment, line)

			continue
		}

		// By default, comment out the line.
		fmt.Fprintf(&sb, "%s# %s\n", indent, trimmed)
	}

	if err := os.WriteFile(yamlOutputFile, []byte(sb.String()), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", yamlOutputFile).Msg("Failed to write config file")
	}

	log.Info().Str("path", yamlOutputFile).Msg("Successfully generated config.yaml.example")
}
