// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reports changes made to the knowledge base directory from
// outside the program, so open screens can re-scan.
package watch
