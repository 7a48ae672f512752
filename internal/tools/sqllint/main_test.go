package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("package q\n\n"+body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRunAcceptsMarkedQueries(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "ok.go", "const QA = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;`\n"+
		"const QB = \"--sql 11111111-2222-4333-8444-666666666666\\nupdate t set a = 1\"\n"+
		"const note = \"not a query\"\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
}

func TestRunReportsMissingAndDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "const QA = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;`\n"+
		"const QMissing = `select * from jobs`\n")
	writeGo(t, dir, "b.go", "const QDup = `--sql 11111111-2222-4333-8444-555555555555\ndelete from jobs;`\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := stderr.String()
	if !strings.Contains(out, "QMissing") || !strings.Contains(out, "marker already used by QA") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

func TestRepositoryQueriesAreMarked(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"../../sqlinline"}, &stderr); code != 0 {
		t.Fatalf("sqlinline has marker problems:\n%s", stderr.String())
	}
}
