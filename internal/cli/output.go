// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(16)

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// ErrorStyle is used for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// WarningStyle is used for warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle is used for secondary information
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// FolderStyle marks folders in tree output
	FolderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true)
)

func init() {
	lipgloss.SetColorProfile(colorProfile())
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// JSONResponse is the envelope of every --json result.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// emit prints data as JSON in --json mode, otherwise calls human. A failed
// command still prints its envelope in JSON mode before returning err.
func (o *options) emit(cmd *cobra.Command, data any, err error, human func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if o.jsonOut {
		name := cmd.CommandPath()
		if err != nil {
			_ = NewJSONErrorResponse(name, err).Write(out)
			return err
		}
		return NewJSONResponse(name, data).Write(out)
	}
	if err != nil {
		return err
	}
	human(out)
	return nil
}

// printOK writes a success line.
func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render("[OK]"), fmt.Sprintf(format, args...))
}

// printWarn writes a warning line.
func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarningStyle.Render("[!]"), fmt.Sprintf(format, args...))
}

// printField writes an aligned label/value pair.
func printField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", LabelStyle.Render(label), value)
}
