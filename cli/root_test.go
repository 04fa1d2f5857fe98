package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/asaidimu/go-odata/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "odataq", cmd.Use)
	assert.Contains(t, cmd.Long, "OData")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"build", "render", "explain", "version"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "select and top",
			args:     []string{"build", "--select", "Name,Age", "--top", "10"},
			expected: "$select=Name,Age&$top=10\n",
		},
		{
			name: "base with every option",
			args: []string{
				"build",
				"--base", "https://example.com/odata/Customers",
				"--select", "Name",
				"--expand", "Orders($select=Id;$top=5)",
				"--expand", "Address",
				"--filter", "Age gt @min",
				"--orderby", "Name:desc",
				"--orderby", "Age",
				"--skip", "0",
				"--count",
				"--param", "@min=18",
			},
			expected: "https://example.com/odata/Customers?$select=Name&$expand=Orders($select=Id;$top=5),Address&$filter=Age gt @min&$orderby=Name desc,Age&$skip=0&$count=true&@min=18\n",
		},
		{
			name:     "search as uri",
			args:     []string{"build", "--base", "https://example.com/odata/Products", "--search", "blue", "--uri"},
			expected: "https://example.com/odata/Products?$search=blue\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestBuildCommand_Errors(t *testing.T) {
	_, err := execute(t, "build", "--top", "-1")
	assert.Error(t, err)

	_, err = execute(t, "build", "--param", "p1=2")
	assert.Error(t, err)

	_, err = execute(t, "build", "--param", "@p1")
	assert.Error(t, err)

	_, err = execute(t, "build", "--orderby", "Name:sideways")
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base: https://example.com/odata/Customers\nselect: [Name]\ntop: 2\n"), 0o644))

	out, err := execute(t, "render", path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/odata/Customers?$select=Name&$top=2\n", out)

	out, err = execute(t, "render", "--uri", path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/odata/Customers?$select=Name&$top=2\n", out)

	out, err = execute(t, "render", "--validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)
}

func TestRenderCommand_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top: -3\n"), 0o644))

	_, err := execute(t, "render", path)
	assert.Error(t, err)

	out, err := execute(t, "render", "--validate", path)
	assert.Error(t, err)
	assert.Contains(t, out, "NEGATIVE_VALUE")

	_, err = execute(t, "render", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteQuery(t *testing.T) {
	cmd := NewRenderCommand(&RootOptions{})
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, writeQuery(cmd, "https://example.com/odata/Customers?$top=1", true))
	require.NoError(t, writeQuery(cmd, "$top=1", false))
	assert.Equal(t, "https://example.com/odata/Customers?$top=1\n$top=1\n", out.String())

	err := writeQuery(cmd, "$filter=Name eq 'a\x7f'", true)
	assert.ErrorIs(t, err, query.ErrMalformedURI)
}

func TestExplainCommand(t *testing.T) {
	out, err := execute(t, "explain", "https://example.com/odata/Customers?$select=Name&$expand=Orders($select=Id;$top=1)&@p=1")
	require.NoError(t, err)
	assert.Contains(t, out, "$select")
	assert.Contains(t, out, "Orders($select=Id;$top=1)")
	assert.Contains(t, out, "expand with options")
	assert.Contains(t, out, "alias")
	assert.Contains(t, out, "3 option(s)")
}

func TestExplainCommand_Invalid(t *testing.T) {
	out, err := execute(t, "explain", "$top=1&$top=2")
	assert.Error(t, err)
	assert.Contains(t, out, "$top")

	_, err = execute(t, "explain", "https://example.com/odata/Customers?")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	var stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})

	code := run(cmd, []string{"build", "--filter", "a", "--top", "-5"}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "error:")

	code = run(NewRootCommand(), []string{"version"}, &bytes.Buffer{})
	assert.Equal(t, 0, code)
}
