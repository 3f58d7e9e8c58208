// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

type testEnv struct {
	dir        string
	kbRoot     string
	configPath string
}

func newTestEnv(t *testing.T, endpoint string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SPARKRAG_HOME", dir)

	env := &testEnv{
		dir:        dir,
		kbRoot:     filepath.Join(dir, "kb"),
		configPath: filepath.Join(dir, "config.toml"),
	}
	if endpoint == "" {
		endpoint = "http://127.0.0.1:1/v1"
	}
	cfg := fmt.Sprintf(`
[kb]
root = %q
watch = false

[chat]
endpoint = %q
timeout_secs = 5

[agents]
db_path = %q

[log]
output = "stderr"
`, env.kbRoot, endpoint, filepath.Join(dir, "agents.db"))
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))
	return env
}

// run executes one command line and returns its combined output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func (e *testEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(e.kbRoot, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func decodeJSON(t *testing.T, out string, data any) JSONResponse {
	t.Helper()
	var resp JSONResponse
	raw := struct {
		JSONResponse
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	resp = raw.JSONResponse
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return resp
}

func withPrompt(t *testing.T, answer string) {
	t.Helper()
	oldPrompt, oldInteractive := promptFunc, interactive
	promptFunc = func(string) (string, error) { return answer, nil }
	interactive = func() bool { return true }
	t.Cleanup(func() { promptFunc, interactive = oldPrompt, oldInteractive })
}

func chatServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.Write([]byte(`{"data":[{"id":"openai/gpt-oss-20b"}]}`))
		case "/v1/chat/completions":
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			// Echo how many messages arrived so tests can see the KB context.
			fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":"got %d messages"}}]}`, len(req.Messages))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// =============================================================================
// KB COMMANDS
// =============================================================================

func TestKB_MkdirTouchTree(t *testing.T) {
	env := newTestEnv(t, "")

	out := env.mustRun(t, "kb", "mkdir", "Policies")
	assert.Contains(t, out, "Created Policies")

	out = env.mustRun(t, "kb", "touch", "leave", "-F", "Policies")
	assert.Contains(t, out, "Created Policies/leave.md")

	data, err := os.ReadFile(filepath.Join(env.kbRoot, "Policies", "leave.md"))
	require.NoError(t, err)
	assert.Equal(t, "# leave\n\n", string(data))

	_, err = env.run(t, "kb", "touch", "leave.md", "-F", "Policies")
	assert.Error(t, err, "existing notes are not overwritten")

	out = env.mustRun(t, "kb", "tree", "--sizes=false")
	assert.Contains(t, out, "`- Policies/ (1 file)")
	assert.Contains(t, out, "   `- leave.md")
}

func TestKB_TreeUnknownFolder(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(t, "kb", "tree", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nope")
}

func TestKB_WriteAndCat(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.run(t, "kb", "write", "notes/today.md", "--content", "hello")
	require.Error(t, err, "write without --create needs an existing file")

	env.mustRun(t, "kb", "write", "notes/today.md", "--content", "hello", "--create")
	out := env.mustRun(t, "kb", "cat", "notes/today.md")
	assert.Equal(t, "hello\n", out)

	env.mustRun(t, "kb", "write", "notes/today.md", "--content", "# Today\n")
	out = env.mustRun(t, "kb", "cat", "--plain", "notes/today.md")
	assert.Equal(t, "# Today\n", out)
}

func TestKB_Move(t *testing.T) {
	env := newTestEnv(t, "")
	env.write(t, "a.md", "a")
	env.write(t, "b.md", "b")

	out := env.mustRun(t, "kb", "mv", "a.md", "c.md")
	assert.Contains(t, out, "Renamed to c.md")
	assert.FileExists(t, filepath.Join(env.kbRoot, "c.md"))

	_, err := env.run(t, "kb", "mv", "c.md", "b.md")
	assert.Error(t, err, "rename refuses an existing target")
}

func TestKB_Remove(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		answer  string
		tty     bool
		wantErr bool
		removed bool
	}{
		{name: "yes flag", args: []string{"--yes"}, removed: true},
		{name: "confirmed", answer: "y", tty: true, removed: true},
		{name: "declined", answer: "n", tty: true},
		{name: "no terminal", wantErr: true},
		{name: "json needs yes", args: []string{"--json"}, tty: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			env.write(t, "Policies/leave.md", "x")
			if tt.tty {
				withPrompt(t, tt.answer)
			} else {
				old := interactive
				interactive = func() bool { return false }
				t.Cleanup(func() { interactive = old })
			}

			args := append([]string{"kb", "rm", "Policies"}, tt.args...)
			_, err := env.run(t, args...)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			_, statErr := os.Stat(filepath.Join(env.kbRoot, "Policies"))
			assert.Equal(t, tt.removed, os.IsNotExist(statErr))
		})
	}
}

func TestKB_Import(t *testing.T) {
	env := newTestEnv(t, "")
	src := t.TempDir()
	md := filepath.Join(src, "notes.md")
	txt := filepath.Join(src, "scratch.txt")
	png := filepath.Join(src, "logo.png")
	require.NoError(t, os.WriteFile(md, []byte("# Notes\n"), 0o644))
	require.NoError(t, os.WriteFile(txt, []byte("plain"), 0o644))
	require.NoError(t, os.WriteFile(png, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	out := env.mustRun(t, "kb", "import", md, txt, "-F", "Inbox")
	assert.Contains(t, out, "Uploaded 2 items (1 converted)")
	assert.FileExists(t, filepath.Join(env.kbRoot, "Inbox", "notes.md"))
	assert.FileExists(t, filepath.Join(env.kbRoot, "Inbox", "scratch.md"))

	out = env.mustRun(t, "kb", "import", md, png)
	assert.Contains(t, out, "Uploaded 1, failed 1")
	assert.Contains(t, out, "logo.png")
}

func TestKB_ImportRecursive(t *testing.T) {
	env := newTestEnv(t, "")
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.md"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("b"), 0o644))

	_, err := env.run(t, "kb", "import", "-r", src, src)
	require.Error(t, err)

	env.mustRun(t, "kb", "import", "-r", src, "-F", "Mirror")
	assert.FileExists(t, filepath.Join(env.kbRoot, "Mirror", "a.md"))
	assert.FileExists(t, filepath.Join(env.kbRoot, "Mirror", "sub", "b.md"))
}

func TestKB_ExpandJSON(t *testing.T) {
	env := newTestEnv(t, "")
	env.write(t, "Policies/leave.md", "x")
	env.write(t, "Policies/HR/pay.md", "x")
	env.write(t, "readme.md", "x")

	var files []string
	resp := decodeJSON(t, env.mustRun(t, "--json", "kb", "expand", "Policies"), &files)
	require.True(t, resp.Success)
	assert.Equal(t, "sparkrag kb expand", resp.Command)
	if diff := cmp.Diff([]string{"Policies/HR/pay.md", "Policies/leave.md"}, files); diff != "" {
		t.Errorf("expand mismatch (-want +got):\n%s", diff)
	}
}

func TestKB_Context(t *testing.T) {
	env := newTestEnv(t, "")
	env.write(t, "Policies/leave.md", "30 days")
	env.write(t, "readme.md", "hello")

	out := env.mustRun(t, "kb", "context", "-f", "readme.md", "-F", "Policies")
	assert.Contains(t, out, "--- readme.md ---\nhello")
	assert.Contains(t, out, "--- leave.md ---\n30 days")

	var got contextOutput
	decodeJSON(t, env.mustRun(t, "--json", "kb", "context", "-f", "gone.md", "-f", "readme.md"), &got)
	assert.Equal(t, []string{"readme.md"}, got.Files)
	assert.Equal(t, []string{"gone.md"}, got.Missing)
}

// =============================================================================
// AGENTS
// =============================================================================

func TestAgents_Lifecycle(t *testing.T) {
	env := newTestEnv(t, "")

	out := env.mustRun(t, "agents", "list")
	assert.Contains(t, out, "Spark")

	env.mustRun(t, "agents", "add", "HR", "--prompt", "You answer HR questions.", "--kb", "Policies/HR")

	yamlPath := filepath.Join(env.dir, "agents.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
agents:
  - name: HR
    system_prompt: Updated prompt.
  - name: Travel
    default_kb: [Policies/travel.md]
`), 0o644))
	out = env.mustRun(t, "agents", "import", yamlPath)
	assert.Contains(t, out, "1 added, 1 updated")

	var list []struct {
		Name         string   `json:"name"`
		SystemPrompt string   `json:"systemPrompt"`
		DefaultKB    []string `json:"defaultKB"`
	}
	decodeJSON(t, env.mustRun(t, "--json", "agents", "list"), &list)
	require.Len(t, list, 3)
	assert.Equal(t, "HR", list[0].Name)
	assert.Equal(t, "Updated prompt.", list[0].SystemPrompt)

	env.mustRun(t, "agents", "rm", "Travel", "--yes")
	_, err := env.run(t, "agents", "rm", "Travel", "--yes")
	assert.Error(t, err)
}

// =============================================================================
// CONFIG, VERSION, STATUS, ASK
// =============================================================================

func TestConfig_SetGet(t *testing.T) {
	env := newTestEnv(t, "")

	out := env.mustRun(t, "config", "path")
	assert.Equal(t, env.configPath+"\n", out)

	env.mustRun(t, "config", "set", "chat.model", "local/tiny")
	out = env.mustRun(t, "config", "get", "chat.model")
	assert.Equal(t, "local/tiny\n", out)

	// The KB root from the file survives the save.
	out = env.mustRun(t, "config", "get", "kb.root")
	assert.Equal(t, env.kbRoot+"\n", out)

	_, err := env.run(t, "config", "set", "chat.nope", "x")
	assert.Error(t, err)
	_, err = env.run(t, "config", "set", "chat.max_tokens", "many")
	assert.Error(t, err)

	out = env.mustRun(t, "config", "show")
	assert.Contains(t, out, "chat.model")
}

func TestVersion_JSON(t *testing.T) {
	env := newTestEnv(t, "")
	var info versionInfo
	resp := decodeJSON(t, env.mustRun(t, "--json", "version"), &info)
	require.True(t, resp.Success)
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestStatus(t *testing.T) {
	srv := chatServer(t)
	env := newTestEnv(t, srv.URL+"/v1")
	env.write(t, "a.md", "x")

	var st statusOutput
	decodeJSON(t, env.mustRun(t, "--json", "status"), &st)
	assert.True(t, st.Connected)
	assert.Equal(t, 1, st.Files)

	down := newTestEnv(t, "")
	decodeJSON(t, down.mustRun(t, "--json", "status"), &st)
	assert.False(t, st.Connected)
	assert.NotEmpty(t, st.Error)
}

func TestAsk(t *testing.T) {
	srv := chatServer(t)
	env := newTestEnv(t, srv.URL+"/v1")
	env.write(t, "Policies/leave.md", "30 days")

	// System prompt, KB context, question.
	out := env.mustRun(t, "ask", "How", "much", "leave?", "-F", "Policies")
	assert.Contains(t, out, "got 3 messages")
	assert.Contains(t, out, "context: 1 file")

	out = env.mustRun(t, "ask", "hi", "-F", "Policies", "--no-kb")
	assert.Contains(t, out, "got 2 messages")

	env.mustRun(t, "agents", "add", "HR", "--kb", "Policies")
	out = env.mustRun(t, "ask", "hi", "--agent", "HR")
	assert.Contains(t, out, "got 3 messages")
}
