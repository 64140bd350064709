package input

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func paths(as []Artifact) []string {
	var out []string
	for _, a := range as {
		out = append(out, a.Path)
	}
	return out
}

func TestHandler_ReadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(dir, "pkg", "foo.py"), "def foo():\n    pass\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "hello\n")

	h := NewHandler(nil, nil)
	artifacts, err := h.ReadFiles([]string{
		filepath.Join(dir, "main.go"),
		filepath.Join(dir, "pkg", "foo.py"),
		filepath.Join(dir, "notes.txt"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Path != filepath.Join(dir, "main.go") {
		t.Errorf("unexpected path: %s", artifacts[0].Path)
	}
	if artifacts[0].Content != "package main\n\nfunc main() {}\n" {
		t.Errorf("unexpected content: %q", artifacts[0].Content)
	}
	if artifacts[0].Language != "go" || artifacts[1].Language != "python" {
		t.Errorf("unexpected languages: %s, %s", artifacts[0].Language, artifacts[1].Language)
	}
}

func TestHandler_ReadFilesMissing(t *testing.T) {
	h := NewHandler(nil, nil)
	if _, err := h.ReadFiles([]string{filepath.Join(t.TempDir(), "missing.go")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHandler_SkipsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.go"), "package bad\n\xff\xfe\n")

	artifacts, err := NewHandler(nil, nil).ReadFiles([]string{filepath.Join(dir, "bad.go")})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 0 {
		t.Errorf("expected invalid UTF-8 to be skipped, got %v", paths(artifacts))
	}
}

func TestHandler_ReadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n")
	writeFile(t, filepath.Join(dir, "b.go"), "package b\n")
	writeFile(t, filepath.Join(dir, "readme.md"), "# Hi\n")
	writeFile(t, filepath.Join(dir, ".git", "hook.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "vendor", "dep.go"), "package dep\n")
	writeFile(t, filepath.Join(dir, "sub", "c.swift"), "let c = 1\n")

	h := NewHandler(nil, []string{"vendor"})
	artifacts, err := h.ReadDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "b.go"),
		filepath.Join(dir, "sub", "c.swift"),
	}
	got := paths(artifacts)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("artifact %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestHandler_Included(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n")
	writeFile(t, filepath.Join(dir, "a_test.go"), "package a\n")
	writeFile(t, filepath.Join(dir, "b.py"), "b = 1\n")

	h := NewHandler([]string{"*.go"}, []string{"*_test.go"})
	artifacts, err := h.ReadDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := paths(artifacts)
	if len(got) != 1 || got[0] != filepath.Join(dir, "a.go") {
		t.Errorf("got %v, want only a.go", got)
	}
}

func TestHandler_CollectDeduplicates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.go")
	writeFile(t, file, "package a\n")
	writeFile(t, filepath.Join(dir, "testdata", "x.go"), "package x\n")

	h := NewHandler(nil, []string{"testdata"})
	artifacts, err := h.Collect([]string{file, dir, filepath.Join(dir, "testdata", "x.go")})
	if err != nil {
		t.Fatal(err)
	}
	got := paths(artifacts)
	// explicit files bypass the exclude globs
	if len(got) != 2 || got[0] != file || got[1] != filepath.Join(dir, "testdata", "x.go") {
		t.Errorf("got %v", got)
	}
}

func TestHandler_CollectMissingPath(t *testing.T) {
	if _, err := NewHandler(nil, nil).Collect([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, path string
		want          bool
	}{
		{"vendor", "vendor/a.go", true},
		{"vendor", "src/vendor/a.go", true},
		{"vendor/", "vendor/a.go", true},
		{"*.pb.go", "api/x.pb.go", true},
		{"internal/gen", "internal/gen/a.go", true},
		{"internal/gen", "internal/generic/a.go", false},
		{"*.go", "main.py", false},
		{"docs", "src/main.go", false},
	}
	for _, tt := range tests {
		if got := match(tt.pattern, tt.path); got != tt.want {
			t.Errorf("match(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestDiffPaths(t *testing.T) {
	diff := "diff --git a/main.go b/main.go\n" +
		"index 1234567..abcdefg 100644\n" +
		"--- a/main.go\n" +
		"+++ b/main.go\n" +
		"@@ -1,3 +1,5 @@\n" +
		" package main\n" +
		"diff --git a/old.go b/old.go\n" +
		"deleted file mode 100644\n" +
		"--- a/old.go\n" +
		"+++ /dev/null\n" +
		"diff --git a/pkg/new.py b/pkg/new.py\n" +
		"new file mode 100644\n" +
		"--- /dev/null\n" +
		"+++ b/pkg/new.py\n" +
		"@@ -0,0 +1 @@\n" +
		"+x = 1\n"

	got := DiffPaths(diff)
	want := []string{"main.go", "pkg/new.py"}
	if len(got) != len(want) {
		t.Fatalf("DiffPaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DiffPaths()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExistingPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.go")
	writeFile(t, file, "package a\n")

	got := ExistingPaths([]string{file, filepath.Join(dir, "gone.go")})
	if len(got) != 1 || got[0] != file {
		t.Errorf("ExistingPaths() = %v", got)
	}
}
