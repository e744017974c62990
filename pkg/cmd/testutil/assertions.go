package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireFileExists checks that a file exists and optionally validates its content
func RequireFileExists(t *testing.T, path string, checks ...func(content string)) {
	t.Helper()

	require.FileExists(t, path, "File should exist: %s", path)

	if len(checks) > 0 {
		content, err := os.ReadFile(path)
		require.NoError(t, err, "Should be able to read file: %s", path)

		for _, check := range checks {
			check(string(content))
		}
	}
}

// RequireFileContains returns a check function that verifies file content contains a string
func RequireFileContains(t *testing.T, expected string) func(string) {
	return func(content string) {
		t.Helper()
		require.Contains(t, content, expected, "File should contain: %s", expected)
	}
}

// RequireNoFile checks that a file does not exist
func RequireNoFile(t *testing.T, path string) {
	t.Helper()
	require.NoFileExists(t, path, "File should not exist: %s", path)
}

// RequireAlterCount checks the number of .sql files in an alter directory
func RequireAlterCount(t *testing.T, dir string, expected int) {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	require.NoError(t, err)
	require.Len(t, files, expected, "Unexpected number of alter files in %s", dir)
}
