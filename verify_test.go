// Package verify enforces project-level structural invariants.
//
// These tests catch what package tests cannot:
//   - packages under pkg/ that nothing outside tests imports
//   - storage interfaces that only ever get an in-memory implementation
//
// Migration-specific checks (TestMigrationTablesHaveConsumers) remain in
// pkg/database/migrate/ because they depend on the embedded migration FS.
//
// Run: go test -run 'TestNoDeadPackages|TestMemoryStoresHaveSQLCounterparts' .
package tennis_agent_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/courtline/tennis-agent"

// sourceFile is a non-test Go file and its contents.
type sourceFile struct {
	path    string
	content string
}

// readSources returns every non-test Go file below the given directories.
// Missing directories are skipped.
func readSources(t *testing.T, dirs ...string) []sourceFile {
	t.Helper()
	var files []sourceFile
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			content, err := os.ReadFile(path) //nolint:gosec // test reads source files
			if err != nil {
				return err
			}
			files = append(files, sourceFile{path: path, content: string(content)})
			return nil
		})
		require.NoError(t, err)
	}
	return files
}

// TestNoDeadPackages verifies that every Go package under pkg/ is imported by
// at least one non-test file in pkg/, cmd/ or internal/.
func TestNoDeadPackages(t *testing.T) {
	root, err := filepath.Abs(".")
	require.NoError(t, err)

	packages := map[string]bool{}
	for _, f := range readSources(t, filepath.Join(root, "pkg")) {
		rel, err := filepath.Rel(root, filepath.Dir(f.path))
		require.NoError(t, err)
		packages[modulePath+"/"+filepath.ToSlash(rel)] = false
	}
	require.NotEmpty(t, packages)

	importRe := regexp.MustCompile(`"(` + regexp.QuoteMeta(modulePath) + `/[^"]+)"`)
	for _, f := range readSources(t,
		filepath.Join(root, "pkg"),
		filepath.Join(root, "cmd"),
		filepath.Join(root, "internal"),
	) {
		for _, m := range importRe.FindAllStringSubmatch(f.content, -1) {
			if _, ok := packages[m[1]]; ok {
				packages[m[1]] = true
			}
		}
	}

	for pkg, imported := range packages {
		assert.True(t, imported,
			"package %q is never imported by non-test code; wire it into the platform or delete it", pkg)
	}
}

// TestMemoryStoresHaveSQLCounterparts verifies that every interface with an
// in-memory implementation (a type named Memory*) also has one that is not
// in-memory. The memory driver is for development; production runs on SQL.
func TestMemoryStoresHaveSQLCounterparts(t *testing.T) {
	implRe := regexp.MustCompile(`(?m)^\s*(?:var\s+)?_\s+(?:\w+\.)?(\w+)\s*=\s*\(\*(\w+)\)\(nil\)`)

	impls := map[string][]string{}
	for _, f := range readSources(t, "pkg") {
		for _, m := range implRe.FindAllStringSubmatch(f.content, -1) {
			impls[m[1]] = append(impls[m[1]], m[2])
		}
	}
	require.NotEmpty(t, impls, "should find interface compliance assertions in pkg/")

	for iface, types := range impls {
		memory, durable := 0, 0
		for _, typ := range types {
			if strings.HasPrefix(typ, "Memory") {
				memory++
			} else {
				durable++
			}
		}
		if memory == 0 {
			continue
		}
		assert.Positive(t, durable,
			"interface %q only has in-memory implementations %v", iface, types)
	}
}
