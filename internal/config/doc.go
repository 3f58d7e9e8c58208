// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// sparkrag.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SPARKRAG_*), optionally from a .env file
//   - ~/.sparkrag/config.toml
//   - ~/.sparkrag/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	root := cfg.KB.Root
//
// Dotted keys address single values for the config command:
//
//	cfg.Set("chat.temperature", "0.2")
//	v, _ := cfg.Get("kb.max_depth")
package config
