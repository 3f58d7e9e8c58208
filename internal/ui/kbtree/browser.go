// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kbtree

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/selection"
	"github.com/jeranaias/sparkrag/internal/ui/styles"
	"github.com/jeranaias/sparkrag/internal/util"
)

// RootLabel names the KB root in the breadcrumb.
const RootLabel = "SparkRAG (Root)"

type modalMode int

const (
	modeNone modalMode = iota
	modeNewFolder
	modeNewFile
	modeRename
	modeImport
	modeConfirmDelete
	modePreview
)

func (m modalMode) title() string {
	switch m {
	case modeNewFolder:
		return "New Folder"
	case modeNewFile:
		return "New File"
	case modeRename:
		return "Rename"
	case modeImport:
		return "Import"
	default:
		return ""
	}
}

func (m modalMode) placeholder() string {
	switch m {
	case modeNewFolder:
		return "Folder name"
	case modeNewFile:
		return "filename.md"
	case modeRename:
		return "New name"
	case modeImport:
		return "/path/to/file.pdf, /path/to/folder"
	default:
		return ""
	}
}

// Browser is the standalone KB screen. It is bound to one browser session
// and is discarded when the session closes.
type Browser struct {
	host    *app.Host
	session *selection.Session
	theme   *styles.Theme
	keys    BrowserKeyMap
	sel     *selection.State
	log     *zap.Logger

	snap   kb.Snapshot
	loaded bool
	// seeded is set once the initial selection arrived. Until then the
	// local selection is not the main screen's, so it is never published.
	seeded bool
	folder string
	items  []kb.TreeNode
	cursor int
	offset int

	mode    modalMode
	target  kb.TreeNode
	input   textinput.Model
	preview viewport.Model
	viewing string

	toast      string
	toastLevel styles.ToastLevel
	toastSeq   int

	width     int
	height    int
	showSizes bool
	done      bool
}

// NewBrowser creates a browser for session. The selection starts empty and
// is seeded by the session's initial-selection message.
func NewBrowser(host *app.Host, session *selection.Session, theme *styles.Theme, showSizes bool) *Browser {
	input := textinput.New()
	input.CharLimit = 255
	input.Prompt = "> "

	return &Browser{
		host:      host,
		session:   session,
		theme:     theme,
		keys:      DefaultBrowserKeys(),
		sel:       selection.NewState(),
		log:       logging.Named("browser"),
		input:     input,
		preview:   viewport.New(0, 0),
		showSizes: showSizes,
	}
}

// Init loads the tree and waits for the seed.
func (b *Browser) Init() tea.Cmd {
	return tea.Batch(ScanCmd(b.host), WaitForSelection(b.session.Inbox()))
}

// Selection returns the browser's current selection.
func (b *Browser) Selection() selection.Payload { return b.sel.Payload() }

// Folder returns the folder being shown.
func (b *Browser) Folder() string { return b.folder }

// Done reports whether the browser applied or cancelled.
func (b *Browser) Done() bool { return b.done }

// SetSize sets the screen dimensions.
func (b *Browser) SetSize(width, height int) {
	b.width = width
	b.height = height
	b.preview.Width = width - 4
	b.preview.Height = height - 6
}

// Update handles one message.
func (b *Browser) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.SetSize(msg.Width, msg.Height)
		return nil

	case ScannedMsg:
		return b.handleScan(msg)

	case SelectionMsg:
		if msg.Msg.Kind == selection.KindInitialSelection {
			b.sel.Replace(msg.Msg.Payload)
			b.seeded = true
		}
		if b.done {
			return nil
		}
		return WaitForSelection(b.session.Inbox())

	case ChangedMsg:
		return ScanCmd(b.host)

	case OpDoneMsg:
		return b.handleOpDone(msg)

	case ImportDoneMsg:
		cmd := b.setToast(styles.ParseToastLevel(string(msg.Resp.Level)), msg.Resp.Summary)
		return tea.Batch(cmd, ScanCmd(b.host))

	case PreviewMsg:
		if msg.Err != nil {
			return b.setToast(styles.ToastError, msg.Err.Error())
		}
		b.mode = modePreview
		b.viewing = msg.Path
		b.preview.SetContent(msg.Rendered)
		b.preview.GotoTop()
		return nil

	case toastExpiredMsg:
		if msg.seq == b.toastSeq {
			b.toast = ""
		}
		return nil

	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return nil
}

func (b *Browser) handleScan(msg ScannedMsg) tea.Cmd {
	if !msg.Resp.Success {
		b.log.Warn("scan failed", zap.String("error", msg.Resp.Error))
		if !b.loaded {
			b.loaded = true
		}
		return b.setToast(styles.ToastError, msg.Resp.Error)
	}

	var current string
	if n, ok := b.current(); ok {
		current = n.Path
	}

	b.snap = msg.Resp.Snapshot
	b.loaded = true
	// The shown folder may have been deleted or renamed elsewhere.
	for b.folder != "" {
		if _, ok := kb.FindFolder(b.snap.Nodes, b.folder); ok {
			break
		}
		b.folder = kb.ParentPath(b.folder)
	}
	b.refreshItems()
	for i, n := range b.items {
		if n.Path == current {
			b.cursor = i
		}
	}
	b.cursor = clamp(b.cursor, 0, len(b.items)-1)
	return nil
}

func (b *Browser) handleOpDone(msg OpDoneMsg) tea.Cmd {
	if !msg.Resp.Success {
		return b.setToast(styles.ToastError, "Error: "+msg.Resp.Error)
	}

	var text string
	switch msg.Op {
	case "delete":
		b.sel.Discard(msg.Path)
		b.notify()
		text = "Deleted " + kb.BaseName(msg.Path)
	case "rename":
		text = "Renamed to " + kb.BaseName(msg.Path)
	default:
		text = "Created " + kb.BaseName(msg.Path)
	}
	return tea.Batch(b.setToast(styles.ToastSuccess, text), ScanCmd(b.host))
}

func (b *Browser) refreshItems() {
	b.items = foldersFirst(kb.ItemsAt(b.snap.Nodes, b.folder))
}

func (b *Browser) current() (kb.TreeNode, bool) {
	if b.cursor < 0 || b.cursor >= len(b.items) {
		return kb.TreeNode{}, false
	}
	return b.items[b.cursor], true
}

func (b *Browser) setToast(level styles.ToastLevel, text string) tea.Cmd {
	b.toastSeq++
	b.toast = text
	b.toastLevel = level
	return toastTick(b.toastSeq)
}

// notify publishes the current selection to the main screen.
func (b *Browser) notify() {
	if !b.seeded {
		return
	}
	if err := b.session.Notify(b.sel.Payload()); err != nil {
		b.log.Debug("selection not published", zap.Error(err))
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (b *Browser) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch b.mode {
	case modeNone:
		return b.handleListKey(msg)
	case modeConfirmDelete:
		return b.handleConfirmKey(msg)
	case modePreview:
		switch msg.String() {
		case "esc", "q", "p":
			b.mode = modeNone
			return nil
		}
		var cmd tea.Cmd
		b.preview, cmd = b.preview.Update(msg)
		return cmd
	default:
		return b.handleInputKey(msg)
	}
}

func (b *Browser) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keys.Up):
		if b.cursor > 0 {
			b.cursor--
		}
	case key.Matches(msg, b.keys.Down):
		if b.cursor < len(b.items)-1 {
			b.cursor++
		}
	case key.Matches(msg, b.keys.Toggle):
		if !b.seeded {
			return b.setToast(styles.ToastInfo, "Loading selection...")
		}
		n, ok := b.current()
		if !ok {
			return nil
		}
		if n.IsFolder() {
			b.sel.ToggleFolder(n.Path)
		} else {
			b.sel.ToggleFile(n.Path)
		}
		b.notify()
	case key.Matches(msg, b.keys.Open):
		n, ok := b.current()
		if !ok {
			return nil
		}
		if n.IsFolder() {
			b.enter(n.Path)
			return nil
		}
		return b.previewCmd(n.Path)
	case key.Matches(msg, b.keys.Back):
		if b.folder != "" {
			from := b.folder
			b.enter(kb.ParentPath(b.folder))
			for i, n := range b.items {
				if n.Path == from {
					b.cursor = i
				}
			}
		}
	case key.Matches(msg, b.keys.NewFolder):
		return b.openModal(modeNewFolder, "")
	case key.Matches(msg, b.keys.NewFile):
		return b.openModal(modeNewFile, "")
	case key.Matches(msg, b.keys.Rename):
		if n, ok := b.current(); ok {
			b.target = n
			return b.openModal(modeRename, n.Name)
		}
	case key.Matches(msg, b.keys.Delete):
		if n, ok := b.current(); ok {
			b.target = n
			b.mode = modeConfirmDelete
		}
	case key.Matches(msg, b.keys.Import):
		return b.openModal(modeImport, "")
	case key.Matches(msg, b.keys.Preview):
		if n, ok := b.current(); ok && !n.IsFolder() {
			return b.previewCmd(n.Path)
		}
	case key.Matches(msg, b.keys.Clear):
		if b.seeded && !b.sel.Empty() {
			b.sel.Clear()
			b.notify()
		}
	case key.Matches(msg, b.keys.Apply):
		return b.finish(true)
	case key.Matches(msg, b.keys.Cancel):
		return b.finish(false)
	}
	return nil
}

func (b *Browser) enter(folder string) {
	b.folder = folder
	b.cursor = 0
	b.offset = 0
	b.refreshItems()
}

func (b *Browser) openModal(mode modalMode, value string) tea.Cmd {
	b.mode = mode
	b.input.Placeholder = mode.placeholder()
	b.input.SetValue(value)
	b.input.CursorEnd()
	return b.input.Focus()
}

func (b *Browser) closeModal() {
	b.mode = modeNone
	b.input.Blur()
	b.input.SetValue("")
	b.target = kb.TreeNode{}
}

func (b *Browser) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		b.closeModal()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(b.input.Value())
		if value == "" {
			return nil
		}
		return b.confirmModal(value)
	}
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return cmd
}

func (b *Browser) confirmModal(value string) tea.Cmd {
	mode, folder, target := b.mode, b.folder, b.target
	b.closeModal()

	host := b.host
	switch mode {
	case modeNewFolder:
		return func() tea.Msg {
			resp := host.CreateFolder(folder, value)
			return OpDoneMsg{Op: "create folder", Path: resp.Path, Resp: resp.Response}
		}
	case modeNewFile:
		return func() tea.Msg {
			resp := host.NewNote(folder, value)
			return OpDoneMsg{Op: "create file", Path: resp.Path, Resp: resp.Response}
		}
	case modeRename:
		if target.Path == "" {
			return nil
		}
		return func() tea.Msg {
			resp := host.Rename(target.Path, value)
			return OpDoneMsg{Op: "rename", Path: resp.Path, Resp: resp.Response}
		}
	case modeImport:
		sources := splitSources(value)
		toast := b.setToast(styles.ToastInfo, "Uploading "+plural(len(sources), "item")+"...")
		return tea.Batch(toast, func() tea.Msg {
			return ImportDoneMsg{Resp: host.Import(context.Background(), sources, folder)}
		})
	}
	return nil
}

func (b *Browser) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		target := b.target
		b.mode = modeNone
		b.target = kb.TreeNode{}
		host := b.host
		return opCmd("delete", target.Path, func() app.Response { return host.Delete(target.Path) })
	case "n", "N", "esc", "q":
		b.mode = modeNone
		b.target = kb.TreeNode{}
	}
	return nil
}

func (b *Browser) previewCmd(path string) tea.Cmd {
	host := b.host
	width := b.width - 6
	if width < 20 {
		width = 80
	}
	style := "dark"
	if !b.theme.IsDark {
		style = "light"
	}
	return func() tea.Msg {
		resp := host.ReadFile(path)
		if !resp.Success {
			return PreviewMsg{Path: path, Err: resp.Err()}
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return PreviewMsg{Path: path, Rendered: resp.Content}
		}
		out, err := r.Render(resp.Content)
		if err != nil {
			return PreviewMsg{Path: path, Rendered: resp.Content}
		}
		return PreviewMsg{Path: path, Rendered: out}
	}
}

func (b *Browser) finish(apply bool) tea.Cmd {
	var err error
	// Applying before the seed would overwrite the main selection with an
	// empty one; it closes like a cancel instead.
	apply = apply && b.seeded
	if apply {
		err = b.session.Apply(b.sel.Payload())
	} else {
		err = b.session.Cancel()
	}
	if err != nil {
		b.log.Debug("session already closed", zap.Error(err))
	}
	b.done = true
	return func() tea.Msg { return BrowserDoneMsg{Applied: apply} }
}

// splitSources splits the import prompt on commas.
func splitSources(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the browser.
func (b *Browser) View() string {
	t := b.theme
	var sb strings.Builder

	sb.WriteString(t.HeaderBrand.Render("Knowledge Base"))
	sb.WriteString("  ")
	sb.WriteString(t.TreeMeta.Render(b.host.Root()))
	sb.WriteString("\n")
	sb.WriteString(t.Breadcrumb.Render(b.breadcrumb()))
	sb.WriteString("\n\n")

	if b.mode == modePreview {
		sb.WriteString(t.ModalTitle.Render(b.viewing))
		sb.WriteString("\n")
		sb.WriteString(t.Preview.Render(b.preview.View()))
		sb.WriteString("\n")
		sb.WriteString(t.ShortcutDesc.Render("esc close  j/k scroll"))
		return sb.String()
	}

	sb.WriteString(b.renderList())
	sb.WriteString("\n\n")
	sb.WriteString(t.Summary.Render(b.sel.Summary()))
	if tags := b.renderTags(); tags != "" {
		sb.WriteString("\n")
		sb.WriteString(tags)
	}

	if b.toast != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.RenderToast(b.toastLevel, b.toast))
	}

	sb.WriteString("\n")
	switch b.mode {
	case modeNone:
		sb.WriteString(b.renderHelp())
	case modeConfirmDelete:
		sb.WriteString(t.ModalDanger.Render(
			fmt.Sprintf("Delete %q? This cannot be undone. (y/n)", b.target.Name)))
	default:
		body := t.ModalTitle.Render(b.mode.title()) + "\n" + b.input.View()
		sb.WriteString(t.Modal.Render(body))
	}
	return sb.String()
}

func (b *Browser) breadcrumb() string {
	if b.folder == "" {
		return RootLabel
	}
	return RootLabel + " / " + strings.ReplaceAll(b.folder, "/", " / ")
}

func (b *Browser) listHeight() int {
	// header (3) + summary and tags (3) + toast (1) + footer (4)
	h := b.height - 11
	if h < 3 {
		return 3
	}
	return h
}

func (b *Browser) renderList() string {
	t := b.theme
	if !b.loaded {
		return t.Empty.Render("Loading...")
	}
	if len(b.items) == 0 {
		return t.Empty.Render("This folder is empty")
	}

	width := b.width - 2
	if width < 20 {
		width = 60
	}

	start, end := window(b.offset, b.cursor, b.listHeight(), len(b.items))
	b.offset = start

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, b.renderItem(b.items[i], i == b.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (b *Browser) renderItem(n kb.TreeNode, isCursor bool, width int) string {
	t := b.theme

	var checked bool
	var icon, meta string
	nameStyle := t.TreeFile
	if n.IsFolder() {
		checked = b.sel.HasFolder(n.Path)
		icon = styles.FolderIcon
		meta = fileCountLabel(n)
		nameStyle = t.TreeFolder
	} else {
		checked = b.sel.HasFile(n.Path)
		icon = styles.FileIcon
		if b.showSizes {
			meta = util.FormatSize(n.Size)
		}
	}
	if checked {
		nameStyle = t.TreeSelected
	}

	prefix := styles.Checkbox(checked) + " " + icon + " "
	avail := width - util.StringWidth(prefix) - util.StringWidth(meta) - 2
	name := util.PadRight(n.Name, avail)

	if isCursor {
		return t.TreeCursor.Render(prefix+name) + "  " + t.TreeMeta.Render(meta)
	}
	return prefix + nameStyle.Render(name) + "  " + t.TreeMeta.Render(meta)
}

// renderTags lists selected folders, then files, by base name.
func (b *Browser) renderTags() string {
	var tags []string
	for _, p := range b.sel.Folders() {
		tags = append(tags, b.theme.Tag.Render(styles.FolderIcon+" "+kb.BaseName(p)))
	}
	for _, p := range b.sel.Files() {
		tags = append(tags, b.theme.Tag.Render(kb.BaseName(p)))
	}
	if len(tags) == 0 {
		return ""
	}
	return strings.Join(tags, " ")
}

func (b *Browser) renderHelp() string {
	var parts []string
	for _, k := range b.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, b.theme.ShortcutKey.Render(h.Key)+" "+b.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
