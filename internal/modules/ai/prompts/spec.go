package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Spec is one catalog entry as declared in prompts.yaml.
type Spec struct {
	Version     int      `yaml:"version"`
	System      string   `yaml:"system"`
	User        string   `yaml:"user"`
	JSON        bool     `yaml:"json"`
	Temperature *float64 `yaml:"temperature"`
}

// Template is a compiled Spec.
type Template struct {
	Name        PromptName
	Version     int
	JSON        bool
	Temperature *float64
	System      func(Input) (string, error)
	User        func(Input) (string, error)
	Validate    Validator
}

// Prompt is a rendered template ready to hand to the LLM gateway.
type Prompt struct {
	Name        string
	Version     int
	System      string
	User        string
	JSON        bool
	Temperature *float64
}

func MakeTemplate(name PromptName, s Spec) (Template, error) {
	if strings.TrimSpace(string(name)) == "" {
		return Template{}, fmt.Errorf("missing prompt name")
	}
	if s.Version <= 0 {
		return Template{}, fmt.Errorf("invalid version for %s", name)
	}
	if strings.TrimSpace(s.System) == "" {
		return Template{}, fmt.Errorf("missing system prompt for %s", name)
	}
	sysT, err := template.New("system").Option("missingkey=zero").Parse(s.System)
	if err != nil {
		return Template{}, fmt.Errorf("%s system template parse: %w", name, err)
	}
	userT, err := template.New("user").Option("missingkey=zero").Parse(s.User)
	if err != nil {
		return Template{}, fmt.Errorf("%s user template parse: %w", name, err)
	}
	render := func(t *template.Template, in Input) (string, error) {
		var b bytes.Buffer
		if err := t.Execute(&b, in); err != nil {
			return "", err
		}
		return strings.TrimSpace(b.String()), nil
	}
	tt := Template{
		Name:        name,
		Version:     s.Version,
		JSON:        s.JSON,
		Temperature: s.Temperature,
		System:      func(in Input) (string, error) { return render(sysT, in) },
		User:        func(in Input) (string, error) { return render(userT, in) },
	}
	if vs := validators[name]; len(vs) > 0 {
		tt.Validate = func(in Input) error {
			for _, v := range vs {
				if err := v(in); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return tt, nil
}
