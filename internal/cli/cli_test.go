package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/tagviewer/pkg/cache"
	"github.com/matzehuels/tagviewer/pkg/comment"
	"github.com/matzehuels/tagviewer/pkg/pipeline"
	"github.com/matzehuels/tagviewer/pkg/relations"
	"github.com/matzehuels/tagviewer/pkg/table"
)

type testEnv struct {
	dataDir   string
	cacheDir  string
	configDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	env := testEnv{dataDir: t.TempDir(), cacheDir: t.TempDir(), configDir: t.TempDir()}
	files := map[string]string{
		"meta.csv":      "id,name\n001,Sentence type\n002,Voice\n",
		"table_001.csv": "sentence,tag_type\nतुम कौन हो,interrogative\nराम आया,declarative\n",
		"meta_001.csv":  "key,value\nName:,Sentence type\n",
		"table_002.csv": "sentence,voice\nराम ने खाया,active\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(env.dataDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return env
}

// writeConfig writes a config pointing at the test data and cache; extra
// TOML is appended verbatim.
func (e testEnv) writeConfig(t *testing.T, extra string) string {
	t.Helper()
	body := fmt.Sprintf("[data]\ndir = '%s'\n\n[cache]\nbackend = \"file\"\ndir = '%s'\n\n%s", e.dataDir, e.cacheDir, extra)
	path := filepath.Join(e.configDir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTagsShowJSON(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "tags", "show", "001", "--json")
	if err != nil {
		t.Fatalf("tags show: %v", err)
	}
	var d table.Descriptor
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if d.Name != "001" || len(d.Rows) != 2 {
		t.Errorf("descriptor = %+v", d)
	}
	if len(d.Meta) != 1 || d.Meta[0].Head != "Name:" || d.Meta[0].Text != "Sentence type" {
		t.Errorf("meta = %+v", d.Meta)
	}
	if d.Options.ExportOptions.FileName != table.DefaultExportName {
		t.Errorf("export name = %q", d.Options.ExportOptions.FileName)
	}
}

func TestTagsShowConfiguredOptions(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "[table]\nsearch = true\nexport_name = \"tags\"\n")

	out, err := runCLI(t, "--config", cfg, "tags", "show", "001", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var d table.Descriptor
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatal(err)
	}
	if !d.Options.Search || d.Options.ExportOptions.FileName != "tags" {
		t.Errorf("options = %+v", d.Options)
	}
}

func TestTagsShowHTML(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "tags", "show", "001", "--html")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<b>Name:</b> Sentence type<br>", `data-tablename="001"`, `<th data-field="tag_type">Tag Type</th>`} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %s:\n%s", want, out)
		}
	}
}

func TestTagsShowPreview(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "tags", "show", "001", "--rows", "1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Tag 001", "Tag Type", "तुम कौन हो", "1 of 2 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "राम आया") {
		t.Error("preview should stop after one row")
	}
}

func TestTagsShowDataFlag(t *testing.T) {
	env := newTestEnv(t)
	cfg := filepath.Join(env.configDir, "config.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "--config", cfg, "tags", "show", "002", "--json"); err == nil {
		t.Error("default data dir should not contain the test tags")
	}
	if _, err := runCLI(t, "--config", cfg, "tags", "show", "002", "--json", "--data", env.dataDir); err != nil {
		t.Errorf("--data should override the config: %v", err)
	}
}

func TestTagsShowMissing(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	if _, err := runCLI(t, "--config", cfg, "tags", "show", "999"); err == nil {
		t.Error("missing tag should fail")
	}
}

func TestTagsCompare(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "tags", "compare", "002", "001", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Tags []table.Descriptor `json:"tags"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Tags) != 2 || got.Tags[0].Name != "002" || got.Tags[1].Name != "001" {
		t.Errorf("compare = %+v", got.Tags)
	}

	if _, err := runCLI(t, "--config", cfg, "tags", "compare", "1", "2", "3", "4", "5"); err == nil {
		t.Error("comparing more than four tags should fail")
	}
}

func TestTagsList(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "tags", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var d table.Descriptor
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatal(err)
	}
	if d.Name != "meta" || len(d.Rows) != 2 || d.Columns[1].Title != "Name" {
		t.Errorf("index = %+v", d)
	}
}

func TestTranslateCommand(t *testing.T) {
	input := "1 dog\n2 cat is_a 1\n"
	path := filepath.Join(t.TempDir(), "rel.txt")
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "translate", path)
	if err != nil {
		t.Fatal(err)
	}
	if want := relations.Translate(input).DOT + "\n"; out != want {
		t.Errorf("translate = %q, want %q", out, want)
	}
}

func TestTranslateJSONStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel.txt")
	if err := os.WriteFile(path, []byte("1 dog\n2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "translate", "--json", "--strict", path)
	if err == nil {
		t.Error("strict translate with a malformed line should fail")
	}
	var got translation
	if jerr := json.Unmarshal([]byte(out), &got); jerr != nil {
		t.Fatalf("decode %q: %v", out, jerr)
	}
	if got.Nodes != 1 || len(got.Diagnostics) != 1 || got.Diagnostics[0].Kind != relations.Malformed {
		t.Errorf("translation = %+v", got)
	}
}

func TestGraphCommandDOT(t *testing.T) {
	dir := t.TempDir()
	input := "1 dog\n2 cat is_a 1\n"
	in := filepath.Join(dir, "rel.txt")
	if err := os.WriteFile(in, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	if _, err := runCLI(t, "--config", cfg, "graph", in, "-f", "dot", "--no-cache"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "rel.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != relations.Translate(input).DOT {
		t.Errorf("rel.dot = %q", data)
	}
}

func TestGraphCommandRejectsFormat(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")
	if _, err := runCLI(t, "--config", cfg, "graph", "x.txt", "-f", "gif"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestCommentCommand(t *testing.T) {
	var got comment.Submission
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		got, _ = comment.ParseForm(r.PostForm)
		json.NewEncoder(w).Encode(comment.Response{Success: true, Message: "Thanks", Style: comment.StyleSuccess})
	}))
	defer endpoint.Close()

	env := newTestEnv(t)
	cfg := env.writeConfig(t, fmt.Sprintf("[comment]\nendpoint = %q\ntimeout = \"5s\"\n", endpoint.URL))

	_, err := runCLI(t, "--config", cfg, "comment", "001", "-r", "0", "-f", "tag_type", "-a", "edit", "-m", "should be question")
	if err != nil {
		t.Fatal(err)
	}
	if got.TableName != "001" || got.Action != comment.ActionEdit || got.Comment != "should be question" {
		t.Errorf("submission = %+v", got)
	}
	if got.Detail.Field != "tag_type" || got.Detail.CellIndex != 1 || got.Detail.Value != "interrogative" {
		t.Errorf("detail = %+v", got.Detail)
	}
}

func TestCommentCommandErrors(t *testing.T) {
	env := newTestEnv(t)
	noEndpoint := env.writeConfig(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"no endpoint", []string{"comment", "001", "-f", "tag_type", "-m", "x"}},
		{"bad row", []string{"comment", "001", "-r", "9", "-f", "tag_type", "-m", "x", "--endpoint", "http://127.0.0.1:1"}},
		{"bad field", []string{"comment", "001", "-f", "nope", "-m", "x", "--endpoint", "http://127.0.0.1:1"}},
		{"bad action", []string{"comment", "001", "-f", "tag_type", "-m", "x", "-a", "merge", "--endpoint", "http://127.0.0.1:1"}},
		{"missing message", []string{"comment", "001", "-f", "tag_type"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", noEndpoint}, tt.args...)
			if _, err := runCLI(t, args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigShowAndInit(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[server]") || !strings.Contains(out, `addr = "127.0.0.1:8080"`) {
		t.Errorf("config show = %s", out)
	}

	fresh := filepath.Join(t.TempDir(), "sub", "config.toml")
	if _, err := runCLI(t, "--config", fresh, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("config init should create the file: %v", err)
	}
	if _, err := runCLI(t, "--config", fresh, "config", "init"); err == nil {
		t.Error("config init should refuse to overwrite")
	}
	if _, err := runCLI(t, "--config", fresh, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force: %v", err)
	}

	out, err = runCLI(t, "--config", fresh, "config", "path")
	if err != nil || strings.TrimSpace(out) != fresh {
		t.Errorf("config path = %q, %v", out, err)
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "cache", "path")
	if err != nil || strings.TrimSpace(out) != env.cacheDir {
		t.Errorf("cache path = %q, %v", out, err)
	}

	fc, err := cache.NewFileCache(env.cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	fc.Set(context.Background(), "a", []byte("1"), time.Hour)
	fc.Set(context.Background(), "b", []byte("2"), time.Hour)

	if _, err := runCLI(t, "--config", cfg, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(env.cacheDir)
	if len(entries) != 0 {
		t.Errorf("cache clear left %d entries", len(entries))
	}
}

func TestCacheCommandsNeedFileBackend(t *testing.T) {
	env := newTestEnv(t)
	cfg := filepath.Join(env.configDir, "config.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "--config", cfg, "cache", "path"); err == nil {
		t.Error("cache path without the file backend should fail")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{pipeline.FormatSVG}},
		{"svg", []string{"svg"}},
		{"svg, png,pdf", []string{"svg", "png", "pdf"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.input)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestArtifactPaths(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		input   string
		output  string
		want    map[string]string
	}{
		{"single with output", []string{"svg"}, "rel.txt", "out/graph.svg", map[string]string{"svg": "out/graph.svg"}},
		{"single from input", []string{"png"}, "data/rel.txt", "", map[string]string{"png": "data/rel.png"}},
		{"stdin", []string{"svg", "dot"}, "-", "", map[string]string{"svg": "graph.svg", "dot": "graph.dot"}},
		{"multiple with base", []string{"svg", "pdf"}, "rel.txt", "out/tree.svg", map[string]string{"svg": "out/tree.svg", "pdf": "out/tree.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := artifactPaths(tt.formats, tt.input, tt.output)
			if len(got) != len(tt.want) {
				t.Fatalf("artifactPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("artifactPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestReadInputTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), pipeline.MaxInputBytes+1), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readInput(path); err == nil {
		t.Error("readInput should reject oversized input")
	}
	if _, err := readInput(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("readInput should fail for a missing file")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 5, "trun…"},
		{"राम ने खाया", 4, "राम…"},
		{"x", 0, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestTagsExport(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.writeConfig(t, "")

	out, err := runCLI(t, "--config", cfg, "tags", "export", "001", "-t", "txt", "-o", "-")
	if err != nil {
		t.Fatalf("tags export: %v", err)
	}
	if want := "Sentence\tTag Type\nतुम कौन हो\tinterrogative\n"; !strings.HasPrefix(out, want) {
		t.Errorf("txt export = %q", out)
	}

	path := filepath.Join(t.TempDir(), "tag.xlsx")
	if _, err := runCLI(t, "--config", cfg, "tags", "export", "001", "-t", "excel", "-o", path); err != nil {
		t.Fatalf("tags export excel: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("excel export is not a zip container")
	}

	if _, err := runCLI(t, "--config", cfg, "tags", "export", "001", "-t", "sql"); err == nil {
		t.Error("expected error for unsupported export type")
	}
}
