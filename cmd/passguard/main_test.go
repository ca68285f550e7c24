package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agent-smit/passguard/internal/corpus"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "breached.txt")
	if err := os.WriteFile(path, []byte("password123\nletmein\nqwerty99\ntrustno1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CORPUS_SOURCE", "file")
	t.Setenv("CORPUS_PATH", path)
	t.Setenv("CORPUS_ENCODING", "utf8")
	t.Setenv("EMBEDDINGS_PATH", "")
	t.Setenv("EMBEDDING_PROVIDER", "ngram")
	return path
}

func TestCheckCmd_JSON(t *testing.T) {
	setupCorpus(t)

	out, err := runCmd(t, "", "check", "--json", "password124")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}

	var res map[string]any
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res["most_similar_password"] != "password123" || res["status"] != "Password Compromised" {
		t.Errorf("result = %v", res)
	}
}

func TestCheckCmd_ReadsStdin(t *testing.T) {
	setupCorpus(t)

	out, err := runCmd(t, "letmein2\n", "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Closest match: letmein") {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(out, "Suggestions:") {
		t.Errorf("compromised password should print suggestions:\n%s", out)
	}
}

func TestCheckCmd_EmptyPassword(t *testing.T) {
	setupCorpus(t)

	if _, err := runCmd(t, "\n", "check"); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestSuggestCmd(t *testing.T) {
	setupCorpus(t)

	out, err := runCmd(t, "", "suggest", "-n", "2")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if lines := strings.Fields(out); len(lines) != 2 {
		t.Errorf("got %d suggestions: %q", len(lines), out)
	}

	out, err = runCmd(t, "", "suggest", "--from", "qwerty99", "-n", "1")
	if err != nil {
		t.Fatalf("suggest --from: %v", err)
	}
	if len(strings.Fields(out)) != 1 {
		t.Errorf("output = %q", out)
	}
}

func TestEmbedCmd_RoundTripsThroughServerConfig(t *testing.T) {
	input := setupCorpus(t)
	output := filepath.Join(t.TempDir(), "out", "embeddings.toml")

	out, err := runCmd(t, "", "embed", "-i", input, "-o", output, "--encoding", "utf8", "--batch-size", "3")
	if err != nil {
		t.Fatalf("embed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "wrote 4 embeddings (100 dimensions)") {
		t.Errorf("output = %s", out)
	}

	f, err := corpus.LoadEmbeddings(output)
	if err != nil {
		t.Fatalf("LoadEmbeddings: %v", err)
	}
	if f.Model != "ngram" || len(f.Embeddings) != 4 || f.Embeddings[3].Password != "trustno1" {
		t.Errorf("file = %s, %d entries", f.Model, len(f.Embeddings))
	}

	t.Setenv("CORPUS_PATH", "")
	t.Setenv("EMBEDDINGS_PATH", output)
	out, err = runCmd(t, "", "check", "--json", "trustno2")
	if err != nil {
		t.Fatalf("check from embeddings file: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"most_similar_password": "trustno1"`) {
		t.Errorf("output = %s", out)
	}
}

func TestEmbedCmd_RequiresInput(t *testing.T) {
	setupCorpus(t)
	if _, err := runCmd(t, "", "embed"); err == nil {
		t.Fatal("expected error without --input")
	}
}

func TestImportCmd_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := runCmd(t, "", "import", "-i", "whatever.toml")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("err = %v, want DATABASE_URL error", err)
	}
}

func TestModelName(t *testing.T) {
	if got := modelName("ngram", "text-embedding-3-small"); got != "ngram" {
		t.Errorf("modelName(ngram) = %q", got)
	}
	if got := modelName("openai", "text-embedding-3-small"); got != "openai:text-embedding-3-small" {
		t.Errorf("modelName(openai) = %q", got)
	}
}
