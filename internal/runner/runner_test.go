package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esfix/esfix/internal/scanner"
	"github.com/esfix/esfix/pkg/cache"
	"github.com/esfix/esfix/pkg/engine"
)

func writeFiles(t *testing.T, files map[string]string) (string, []scanner.FileInfo) {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	infos, err := scanner.New(scanner.DefaultOptions()).Scan(root)
	require.NoError(t, err)
	return root, infos
}

func TestRunRewritesFiles(t *testing.T) {
	root, files := writeFiles(t, map[string]string{
		"a.js": "var x = 1;\nuse(x);\n",
		"b.js": "var n = 0;\nn = n + 1;\n",
		"c.js": "already();\n",
	})

	r := New(Options{Level: engine.Level1, Jobs: 2})
	report, err := r.Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 3, report.FilesSeen)
	assert.Equal(t, 2, report.FilesModified)
	assert.Equal(t, 1, report.ChangesByRule["var-to-const"])
	assert.Equal(t, 1, report.ChangesByRule["var-to-let"])
	assert.Equal(t, 2, report.TotalChanges())
	assert.Empty(t, report.ParseFailures)

	a, err := os.ReadFile(filepath.Join(root, "a.js"))
	require.NoError(t, err)
	assert.Contains(t, string(a), "const x = 1;")

	c, err := os.ReadFile(filepath.Join(root, "c.js"))
	require.NoError(t, err)
	assert.Equal(t, "already();\n", string(c))
}

func TestDryRunLeavesFilesUntouched(t *testing.T) {
	src := "var x = 1;\nuse(x);\n"
	root, files := writeFiles(t, map[string]string{"a.js": src})

	r := New(Options{Level: engine.Level1, DryRun: true})
	report, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesModified)

	content, err := os.ReadFile(filepath.Join(root, "a.js"))
	require.NoError(t, err)
	assert.Equal(t, src, string(content), "dry run must not write")
}

func TestParseFailureIsNonFatal(t *testing.T) {
	_, files := writeFiles(t, map[string]string{
		"bad.js":  "var = ;",
		"good.js": "var x = 1;\nuse(x);\n",
	})

	r := New(Options{Level: engine.Level1})
	report, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.js"}, report.ParseFailures)
	assert.Equal(t, 1, report.FilesModified)
}

func TestCacheShortCircuits(t *testing.T) {
	src := "var x = 1;\nuse(x);\n"
	_, files := writeFiles(t, map[string]string{"a.js": src})

	c := cache.New(cache.Options{})
	r := New(Options{Level: engine.Level1, Cache: c, DryRun: true})

	first, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	require.Equal(t, 1, first.FilesModified)
	assert.False(t, first.Results[0].FromCache)
	assert.Equal(t, 1, c.Len())

	second, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, second.FilesModified)
	assert.True(t, second.Results[0].FromCache)
	assert.Equal(t, first.ChangesByRule, second.ChangesByRule)
}

func TestCacheKeyDependsOnLevel(t *testing.T) {
	src := "function f() {\n  return Promise.all([a, b]);\n}\n"
	_, files := writeFiles(t, map[string]string{"a.js": src})

	c := cache.New(cache.Options{})
	l1 := New(Options{Level: engine.Level1, Cache: c, DryRun: true})
	report, err := l1.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesModified)

	// Same content at a different level misses the Level1 entry.
	l2 := New(Options{Level: engine.Level2, Cache: c, DryRun: true})
	report, err = l2.Run(context.Background(), files)
	require.NoError(t, err)
	assert.False(t, report.Results[0].FromCache)
	assert.Equal(t, 2, c.Len())
}
