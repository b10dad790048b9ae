package service

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed persona.yaml
var defaultPersona []byte

// Persona is the biographical context the chat assistant answers from.
type Persona struct {
	Name         string `yaml:"name"`
	System       string `yaml:"system"`
	Profile      string `yaml:"profile"`
	Instructions string `yaml:"instructions"`
}

var promptTemplate = template.Must(template.New("prompt").Parse(`{{.Profile}}
{{.Instructions}}

User Query: {{.Query}}

Response:`))

// LoadPersona reads a YAML persona from path, or the embedded default when
// path is empty.
func LoadPersona(path string) (*Persona, error) {
	data := defaultPersona
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read persona file: %w", err)
		}
		data = raw
	}
	return ParsePersona(data)
}

func ParsePersona(data []byte) (*Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse persona: %w", err)
	}

	p.System = strings.TrimSpace(p.System)
	p.Profile = strings.TrimSpace(p.Profile)
	p.Instructions = strings.TrimSpace(p.Instructions)

	if p.System == "" || p.Profile == "" {
		return nil, fmt.Errorf("persona requires system and profile")
	}
	return &p, nil
}

// Prompt embeds the visitor's message into the persona prompt.
func (p *Persona) Prompt(query string) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		Profile      string
		Instructions string
		Query        string
	}{
		Profile:      p.Profile + "\n",
		Instructions: p.Instructions,
		Query:        query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
