package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBuildCommand(t *testing.T) {
	cmd := NewBuildCommand()

	assert.Equal(t, "build", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"select", "exclude", "full-refresh"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	assert.NotEmpty(t, cmd.Aliases)
	assert.Equal(t, "run", cmd.Aliases[0])
}

func TestNewLintCommand(t *testing.T) {
	cmd := NewLintCommand()

	assert.Equal(t, "lint", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	for _, flag := range []string{"select", "fix"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewQualifyCommand(t *testing.T) {
	cmd := NewQualifyCommand()

	assert.Equal(t, "qualify", cmd.Use)
	for _, flag := range []string{"select", "fix"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewTestCommand(t *testing.T) {
	cmd := NewTestCommand()

	assert.Equal(t, "test", cmd.Use)
	for _, flag := range []string{"select", "exclude"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewGraphCommand(t *testing.T) {
	cmd := NewGraphCommand()

	assert.Equal(t, "graph", cmd.Use)
	flag := cmd.Flags().Lookup("format")
	assert.NotNil(t, flag)
	assert.Equal(t, "ascii", flag.DefValue)
}

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.Contains(t, cmd.Aliases, "ls")
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	assert.Equal(t, "version", cmd.Use)
}

func TestNewCompileCommand(t *testing.T) {
	cmd := NewCompileCommand()
	assert.Equal(t, "compile", cmd.Use)
}

func TestNewDocsCommand(t *testing.T) {
	cmd := NewDocsCommand()
	assert.Equal(t, "docs", cmd.Use)
}
