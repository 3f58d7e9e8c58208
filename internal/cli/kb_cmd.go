// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/convert"
	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/selection"
	"github.com/jeranaias/sparkrag/internal/ui/styles"
	"github.com/jeranaias/sparkrag/internal/util"
)

// =============================================================================
// KNOWLEDGE BASE COMMANDS
// =============================================================================

func newKBCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect and edit the knowledge base",
		Long: `Inspect and edit the knowledge base directory.

Paths are relative to the KB root and use forward slashes, for example
"Policies/HR/leave.md".`,
	}
	cmd.AddCommand(
		newKBTreeCommand(o),
		newKBMkdirCommand(o),
		newKBTouchCommand(o),
		newKBWriteCommand(o),
		newKBMoveCommand(o),
		newKBRemoveCommand(o),
		newKBImportCommand(o),
		newKBExpandCommand(o),
		newKBCatCommand(o),
		newKBContextCommand(o),
	)
	return cmd
}

// scan opens the app without agents and returns a fresh snapshot.
func (o *options) scan(cmd *cobra.Command) (*app.App, kb.Snapshot, error) {
	return o.scanWithAgents(cmd, false)
}

func newKBTreeCommand(o *options) *cobra.Command {
	var sizes bool
	cmd := &cobra.Command{
		Use:   "tree [folder]",
		Short: "Print the KB as a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, snap, err := o.scan(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			nodes := snap.Nodes
			title := snap.Root
			if len(args) == 1 && args[0] != "" {
				folder, ok := kb.FindFolder(snap.Nodes, args[0])
				if !ok {
					return kb.NewError("tree", args[0], kb.KindNotFound, os.ErrNotExist)
				}
				nodes = folder.Children
				title = folder.Path
			}
			if !cmd.Flags().Changed("sizes") {
				sizes = o.cfg.UI.ShowSizes
			}
			return o.emit(cmd, nodes, nil, func(w io.Writer) {
				fmt.Fprintln(w, TitleStyle.Render(title))
				if len(nodes) == 0 {
					fmt.Fprintln(w, DimStyle.Render("(empty)"))
					return
				}
				printTree(w, nodes, "", sizes)
			})
		},
	}
	cmd.Flags().BoolVar(&sizes, "sizes", true, "show file sizes")
	return cmd
}

func printTree(w io.Writer, nodes []kb.TreeNode, prefix string, sizes bool) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		line := prefix + styles.RenderTreeLine(last)
		if n.IsFolder() {
			count := kb.CountFiles(n.Children)
			fmt.Fprintf(w, "%s%s %s\n", line, FolderStyle.Render(n.Name+"/"),
				DimStyle.Render(fmt.Sprintf("(%d %s)", count, plural(count, "file"))))
			next := prefix + styles.TreeChars.Pipe + "  "
			if last {
				next = prefix + "   "
			}
			printTree(w, n.Children, next, sizes)
			continue
		}
		if sizes {
			fmt.Fprintf(w, "%s%s %s\n", line, n.Name, DimStyle.Render(util.FormatSize(n.Size)))
		} else {
			fmt.Fprintf(w, "%s%s\n", line, n.Name)
		}
	}
}

func newKBMkdirCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.Host.CreateFolder(kb.ParentPath(args[0]), kb.BaseName(args[0]))
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				printOK(w, "Created %s", resp.Path)
			})
		},
	}
}

func newKBTouchCommand(o *options) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "touch <name>",
		Short: "Create a Markdown note",
		Long: `Create a Markdown note. A name without ".md" gets the suffix, and the
note starts with a heading made from the name. Existing notes are not
overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.Host.NewNote(folder, args[0])
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				printOK(w, "Created %s", resp.Path)
			})
		},
	}
	cmd.Flags().StringVarP(&folder, "folder", "F", "", "folder to create the note in")
	return cmd
}

func newKBWriteCommand(o *options) *cobra.Command {
	var (
		content string
		create  bool
	)
	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Replace a file's content",
		Long: `Replace a file's content with --content or, when omitted, standard input.
The file must exist unless --create is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("content") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(data)
			}
			a, err := o.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			path := args[0]
			var resp app.Response
			if create {
				resp = a.Host.CreateFile(path, content)
			} else {
				if _, statErr := a.Host.Store().ReadFile(path); statErr != nil {
					return statErr
				}
				resp = a.Host.SaveFile(path, content)
			}
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				printOK(w, "Wrote %s (%s)", path, util.FormatSize(int64(len(content))))
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().BoolVar(&create, "create", false, "create the file and its folders if missing")
	return cmd
}

func newKBMoveCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <path> <new-name>",
		Short: "Rename a file or folder in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.Host.Rename(args[0], args[1])
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				printOK(w, "Renamed to %s", resp.Path)
			})
		},
	}
}

func newKBRemoveCommand(o *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <path>",
		Aliases: []string{"delete"},
		Short:   "Delete a file or folder",
		Long:    `Delete a file or a folder with everything in it. Asks first unless --yes.`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, snap, err := o.scan(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := args[0]
			node, ok := kb.Find(snap.Nodes, path)
			if !ok {
				return kb.NewError("delete", path, kb.KindNotFound, os.ErrNotExist)
			}
			action := "delete " + path
			if node.IsFolder() {
				n := kb.CountFiles(node.Children)
				action = fmt.Sprintf("delete folder %s and its %d %s", path, n, plural(n, "file"))
			}
			ok, err = o.confirm(yes, action)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			resp := a.Host.Delete(path)
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				printOK(w, "Deleted %s", path)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newKBImportCommand(o *options) *cobra.Command {
	var (
		folder    string
		recursive bool
	)
	cmd := &cobra.Command{
		Use:   "import <source>...",
		Short: "Convert documents into the KB",
		Long: `Convert documents into Markdown notes inside the KB.

Markdown files are copied as is. PDF, DOCX, HTML, TXT, RTF and source files
are converted. A folder source is converted recursively into a folder of the
same name.

With --recursive a single source directory is mirrored into --folder
instead of being nested under its own name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if recursive {
				if len(args) != 1 {
					return errors.New("--recursive takes exactly one source directory")
				}
				report, err := a.Host.Converter().ConvertDirectory(cmd.Context(), args[0], folder)
				return o.emit(cmd, report, err, func(w io.Writer) {
					printResults(w, report.Results)
					summary, _ := app.ImportSummary(report.Results)
					fmt.Fprintln(w, summary)
				})
			}

			resp := a.Host.Import(cmd.Context(), args, folder)
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				printResults(w, resp.Results)
				switch resp.Level {
				case app.LevelWarning:
					printWarn(w, "%s", resp.Summary)
				default:
					printOK(w, "%s", resp.Summary)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&folder, "folder", "F", "", "KB folder to import into")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "mirror one source directory into --folder")
	return cmd
}

func printResults(w io.Writer, results []convert.Result) {
	for _, r := range results {
		switch {
		case !r.Success:
			fmt.Fprintf(w, "  %s %s: %s\n", ErrorStyle.Render("[X]"), r.SourcePath, r.Error)
		case r.Converted:
			fmt.Fprintf(w, "  %s %s -> %s\n", SuccessStyle.Render("[OK]"), r.SourcePath, r.ProducedName)
		default:
			fmt.Fprintf(w, "  %s %s\n", SuccessStyle.Render("[OK]"), r.ProducedName)
		}
		if len(r.Details) > 0 {
			printResults(w, r.Details)
		}
	}
}

func newKBExpandCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "expand [folder]",
		Short: "List every file under a folder",
		Long:  `List every file under a folder, depth first. Without a folder the whole KB is listed.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, snap, err := o.scan(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			files := kb.Expand(folder, snap.Nodes)
			if files == nil {
				files = []string{}
			}
			return o.emit(cmd, files, nil, func(w io.Writer) {
				for _, f := range files {
					fmt.Fprintln(w, f)
				}
			})
		},
	}
}

func newKBCatCommand(o *options) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file, highlighted on a terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.Host.ReadFile(args[0])
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				content := resp.Content
				if !plain && isTerminal(w) {
					content = highlight(kb.BaseName(resp.Path), content)
				}
				fmt.Fprint(w, content)
				if !strings.HasSuffix(content, "\n") {
					fmt.Fprintln(w)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "never highlight")
	return cmd
}

// contextOutput is the --json shape of kb context.
type contextOutput struct {
	Text      string   `json:"text"`
	Files     []string `json:"files"`
	Missing   []string `json:"missing,omitempty"`
	Truncated []string `json:"truncated,omitempty"`
}

func newKBContextCommand(o *options) *cobra.Command {
	var (
		files   []string
		folders []string
		dedupe  bool
	)
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the KB context a selection produces",
		Long: `Print the text that is sent to the model for a selection of files and
folders. Folders expand to every file under them.`,
		Example: `  sparkrag kb context -f readme.md -F Policies`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dedupe") {
				o.cfg.Context.DedupeFiles = dedupe
			}
			a, snap, err := o.scan(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sel := selection.Payload{Files: files, Folders: folders}
			res, err := a.Assembler.Build(cmd.Context(), snap, sel)
			out := contextOutput{Text: res.Text, Files: res.Files, Missing: res.Missing, Truncated: res.Truncated}
			return o.emit(cmd, out, err, func(w io.Writer) {
				if res.Empty() {
					printWarn(cmd.ErrOrStderr(), "selection resolves to no files")
					return
				}
				fmt.Fprintln(w, res.Text)
				for _, m := range res.Missing {
					printWarn(cmd.ErrOrStderr(), "skipped %s: not readable", m)
				}
				for _, t := range res.Truncated {
					printWarn(cmd.ErrOrStderr(), "truncated %s", t)
				}
			})
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "selected file (repeatable)")
	cmd.Flags().StringSliceVarP(&folders, "folder", "F", nil, "selected folder (repeatable)")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "include each file once")
	return cmd
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
