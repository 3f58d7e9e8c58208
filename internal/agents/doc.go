// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agents stores assistant profiles in SQLite.
//
// A profile pairs a system prompt with a default KB selection. Choosing a
// profile on the main screen replaces the current selection with the
// profile's DefaultKB paths, classified against the latest scan.
//
// Profiles can be bulk-loaded from YAML:
//
//	agents:
//	  - name: HR helper
//	    description: Answers leave questions
//	    system_prompt: You answer HR questions.
//	    default_kb: [policies/hr, handbook.md]
package agents
