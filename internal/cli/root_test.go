package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command and returns stdout, stderr and the exit
// code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// decode parses a JSON response envelope.
func decode(t *testing.T, out string) Response {
	t.Helper()
	var r Response
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "lightdao", cmd.Use)

	for _, name := range []string{"plan", "render", "check", "gen"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	config := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "c", config.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, stderr, code := run(t, "--format", "xml", "plan", "User", "findById")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `invalid format "xml"`)
}

func TestInvalidConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lightdao.yaml", "dialect: oracle\n")
	_, stderr, code := run(t, "--config", path, "plan", "User", "findById", "--args", "[1]")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "load configuration")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(WrapExitError(ExitFailure, "x", nil)))
	assert.Equal(t, ExitCommandError, ExitCode(assert.AnError))
}

func TestParseWindow(t *testing.T) {
	w, err := parseWindow("20, 10")
	require.NoError(t, err)
	assert.Equal(t, window{start: 20, size: 10, set: true}, w)

	w, err = parseWindow("")
	require.NoError(t, err)
	assert.False(t, w.set)

	for _, bad := range []string{"10", "a,1", "-1,5", "0,0"} {
		_, err := parseWindow(bad)
		assert.Error(t, err, bad)
	}
}
