// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the sparkrag TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. A Theme bundles the styles used by the chat screen, the inline
knowledge-base panel and the file browser.

# Color System (colors.go)

  - Purple - assistant messages, the cursor row
  - Cyan - brand, folders, connection "online"
  - Emerald - success toasts, selected entries
  - Amber - warnings, selection tags
  - Rose - errors, connection "offline", delete confirmation

# Tree Glyphs (glyphs.go)

ASCII-only glyphs for tree lines, checkboxes and expand arrows so the
browser renders the same on every terminal.

# Usage

	theme := styles.NewTheme("dark")
	line := theme.TreeFolder.Render(name)
	toast := styles.RenderToast(styles.ToastSuccess, "Uploaded 2 items")
*/
package styles
