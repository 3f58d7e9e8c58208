// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"
)

// errConfirmRequired is returned when a prompt is impossible.
var errConfirmRequired = errors.New("confirmation required: stdin is not a terminal, pass --yes")

// Prompt hooks, replaced in tests.
var (
	promptFunc  = linerPrompt
	interactive = IsTTY
)

func linerPrompt(prompt string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	return line.Prompt(prompt)
}

// confirm asks a y/N question unless yes is set. JSON mode and
// non-terminal stdin require yes.
func (o *options) confirm(yes bool, action string) (bool, error) {
	if yes {
		return true, nil
	}
	if o.jsonOut {
		return false, errors.New("confirmation required: use --yes in JSON mode")
	}
	if !interactive() {
		return false, errConfirmRequired
	}

	answer, err := promptFunc(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action))
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return false, nil
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
