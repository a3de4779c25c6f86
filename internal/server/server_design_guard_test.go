package server

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

func TestDesignGuardHandlersAvoidInlineMapResponses(t *testing.T) {
	root := repoRootFromServerTests(t)
	files := []string{
		"internal/server/server_info.go",
		"internal/server/server_helpers.go",
		"internal/server/server_tree.go",
		"internal/server/server_view.go",
		"internal/server/server_cache.go",
	}
	pattern := regexp.MustCompile(`writeJSON\s*\(.*map\[[^\]]+\]`)

	for _, rel := range files {
		source := mustReadRepoFile(t, root, rel)
		lines := regexLineNumbers(source, pattern)
		if len(lines) == 0 {
			continue
		}
		t.Errorf("%s contains inline map response at lines %v; use typed response DTOs", rel, lines)
	}
}

func TestDesignGuardUIEscapesInterpolatedHTML(t *testing.T) {
	root := repoRootFromServerTests(t)
	source := mustReadRepoFile(t, root, "internal/server/ui_index_script.go")
	// Report data reaches innerHTML only through esc().
	pattern := regexp.MustCompile(`innerHTML\s*=.*\+\s*(?:err|row|b|v|item)\.[a-zA-Z_]+`)
	if lines := regexLineNumbers(source, pattern); len(lines) > 0 {
		t.Errorf("ui_index_script.go interpolates unescaped report data at lines %v; wrap values in esc()", lines)
	}
	if lines := literalLineNumbers(source, "function esc("); len(lines) != 1 {
		t.Errorf("expected exactly one esc() helper, found at lines %v", lines)
	}
}

func TestDesignGuardSourceFilesAvoidImplicitBuildConstraints(t *testing.T) {
	root := repoRootFromServerTests(t)
	// Suffixes the go tool reads as GOOS/GOARCH constraints; none of these
	// files are platform specific.
	implicit := regexp.MustCompile(`_(js|wasm|wasip1|windows|linux|darwin|freebsd|android|ios|plan9|amd64|arm64|386|arm)(_test)?\.go$`)
	for _, dir := range []string{"cmd", "internal"} {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && implicit.MatchString(d.Name()) {
				rel, _ := filepath.Rel(root, path)
				t.Errorf("%s carries an implicit build constraint in its name; rename it", rel)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk %s: %v", dir, err)
		}
	}
}

func repoRootFromServerTests(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("resolve current test file path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func mustReadRepoFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func literalLineNumbers(source, literal string) []int {
	out := make([]int, 0, 4)
	for i, line := range strings.Split(source, "\n") {
		if strings.Contains(line, literal) {
			out = append(out, i+1)
		}
	}
	return out
}

func regexLineNumbers(source string, pattern *regexp.Regexp) []int {
	out := make([]int, 0, 4)
	for i, line := range strings.Split(source, "\n") {
		if pattern.MatchString(line) {
			out = append(out, i+1)
		}
	}
	return out
}
