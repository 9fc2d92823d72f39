package cli

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"

	"formflow/internal/config"
	"formflow/internal/schema"
	"formflow/internal/session"
)

// newTestConfig returns a config with every path rooted in a fresh temp
// directory and plain output, so assertions see unstyled text.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	return &config.Config{
		StorePath:   filepath.Join(dir, "store.yaml"),
		SessionsDir: filepath.Join(dir, "sessions"),
		Output:      config.OutputConfig{Plain: true},
	}
}

// clearFormflowEnv detaches tests from formflow variables in the caller's
// environment; path resolution honors them ahead of the config under test.
func clearFormflowEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{schema.EnvSchemaPath, session.EnvSessionsDir, config.EnvConfigPath} {
		t.Setenv(key, "")
	}
}

// runCLI executes the CLI once and captures its output.
func runCLI(t *testing.T, cfg *config.Config, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	result := RunWithConfig(cfg, args, outBuf, errBuf)
	return outBuf.String(), errBuf.String(), result.ExitCode
}

var sessionIDPattern = regexp.MustCompile(`session (\S+)`)

// beginSession starts a create session and returns its ID.
func beginSession(t *testing.T, cfg *config.Config) string {
	t.Helper()

	stdout, stderr, code := runCLI(t, cfg, "begin")
	if code != 0 {
		t.Fatalf("begin exit code = %d, stderr: %s", code, stderr)
	}
	m := sessionIDPattern.FindStringSubmatch(stdout)
	if m == nil {
		t.Fatalf("begin output has no session id: %q", stdout)
	}
	return m[1]
}
