// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package selection tracks which knowledge-base paths are selected as chat
// context and keeps the selection of two screens in step.
//
// Each screen owns its own State. Screens never share a State; they
// exchange Payload copies over a Bus as one-way messages:
//
//	main   --InitialSelection-->  browser   (once, when the browser opens)
//	browser --SelectionChanged--> main      (after every toggle, and on apply)
//
// Controller enforces a single browser instance: opening while one is open
// returns the existing session instead of creating a second.
package selection
