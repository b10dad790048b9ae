package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultPersona(t *testing.T) {
	p, err := LoadPersona("")
	require.NoError(t, err)

	assert.NotEmpty(t, p.System)
	assert.Contains(t, p.Profile, "Kunal Dange")
}

func TestPersonaPrompt(t *testing.T) {
	p := &Persona{
		System:       "You are Jane.",
		Profile:      "Jane is a developer.",
		Instructions: "Answer as Jane.",
	}

	prompt, err := p.Prompt("What do you do?")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Jane is a developer.\n"))
	assert.Contains(t, prompt, "Answer as Jane.")
	assert.True(t, strings.HasSuffix(prompt, "User Query: What do you do?\n\nResponse:"))
}

func TestPersonaPromptKeepsQueryVerbatim(t *testing.T) {
	p := &Persona{System: "s", Profile: "p"}

	prompt, err := p.Prompt("{{.Profile}} <b>hi</b>")
	require.NoError(t, err)
	assert.Contains(t, prompt, "User Query: {{.Profile}} <b>hi</b>")
}

func TestLoadPersonaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Jane
system: |
  You are Jane.
profile: |
  Jane builds things.
`), 0o600))

	p, err := LoadPersona(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.Name)
	assert.Equal(t, "You are Jane.", p.System)
	assert.Equal(t, "Jane builds things.", p.Profile)
}

func TestParsePersonaErrors(t *testing.T) {
	_, err := ParsePersona([]byte("system: only a system prompt"))
	assert.Error(t, err)

	_, err = ParsePersona([]byte("system: [unterminated"))
	assert.Error(t, err)

	_, err = LoadPersona(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
