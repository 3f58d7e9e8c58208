// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the sparkrag command tree.
//
// Running sparkrag with no arguments starts the chat screen. Subcommands
// work on the knowledge base directly:
//
//	sparkrag kb tree              show the KB as a tree
//	sparkrag kb import a.pdf b.md convert files into the KB
//	sparkrag kb context -F HR     print the context a selection produces
//	sparkrag agents list          list agent profiles
//	sparkrag config set chat.model my-model
//	sparkrag ask "question"       one-shot question with optional KB context
//
// All commands accept --config to point at another config file and --json
// for machine-readable output.
package cli
