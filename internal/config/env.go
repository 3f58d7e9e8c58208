// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// EnvPrefix is the prefix of every override variable.
const EnvPrefix = "SPARKRAG"

// envOverrides lists the supported variables. Pointer fields stay nil when
// the variable is unset, so only variables that are present override.
type envOverrides struct {
	KBRoot       *string  `envconfig:"KB_ROOT"`
	KBWatch      *bool    `envconfig:"KB_WATCH"`
	Endpoint     *string  `envconfig:"ENDPOINT"`
	Model        *string  `envconfig:"MODEL"`
	MaxTokens    *int     `envconfig:"MAX_TOKENS"`
	Temperature  *float64 `envconfig:"TEMPERATURE"`
	DedupeFiles  *bool    `envconfig:"DEDUPE_FILES"`
	MaxFileBytes *int     `envconfig:"MAX_FILE_BYTES"`
	AgentsDB     *string  `envconfig:"AGENTS_DB"`
	LogLevel     *string  `envconfig:"LOG_LEVEL"`
	LogFormat    *string  `envconfig:"LOG_FORMAT"`
	LogOutput    *string  `envconfig:"LOG_OUTPUT"`
	Theme        *string  `envconfig:"THEME"`
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SPARKRAG_KB_ROOT, SPARKRAG_KB_WATCH
//   - SPARKRAG_ENDPOINT, SPARKRAG_MODEL, SPARKRAG_MAX_TOKENS, SPARKRAG_TEMPERATURE
//   - SPARKRAG_DEDUPE_FILES, SPARKRAG_MAX_FILE_BYTES
//   - SPARKRAG_AGENTS_DB
//   - SPARKRAG_LOG_LEVEL, SPARKRAG_LOG_FORMAT, SPARKRAG_LOG_OUTPUT
//   - SPARKRAG_THEME
func (c *Config) ApplyEnvOverrides() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}

	setString(&c.KB.Root, env.KBRoot)
	setBool(&c.KB.Watch, env.KBWatch)
	setString(&c.Chat.Endpoint, env.Endpoint)
	setString(&c.Chat.Model, env.Model)
	if env.MaxTokens != nil {
		c.Chat.MaxTokens = *env.MaxTokens
	}
	if env.Temperature != nil {
		c.Chat.Temperature = *env.Temperature
	}
	setBool(&c.Context.DedupeFiles, env.DedupeFiles)
	if env.MaxFileBytes != nil {
		c.Context.MaxFileBytes = *env.MaxFileBytes
	}
	setString(&c.Agents.DBPath, env.AgentsDB)
	setString(&c.Log.Level, env.LogLevel)
	setString(&c.Log.Format, env.LogFormat)
	setString(&c.Log.Output, env.LogOutput)
	setString(&c.UI.Theme, env.Theme)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
