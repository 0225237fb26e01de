package prompts

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultCatalogYAML []byte

// InputError is a Build failure caused by the caller's Input rather than the
// catalog itself.
type InputError struct {
	Prompt PromptName
	Err    error
}

func (e *InputError) Error() string { return fmt.Sprintf("%s: %v", e.Prompt, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

type Catalog struct {
	templates map[PromptName]Template
}

// Default parses the embedded catalog. It panics on a malformed embed since
// that can only be a build defect.
func Default() *Catalog {
	c, err := parseCatalog(defaultCatalogYAML, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Load returns the embedded catalog with entries from overridePath (if any)
// replacing those of the same name.
func Load(overridePath string) (*Catalog, error) {
	if overridePath == "" {
		return parseCatalog(defaultCatalogYAML, nil)
	}
	raw, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("read prompts override %s: %w", overridePath, err)
	}
	return parseCatalog(defaultCatalogYAML, raw)
}

func parseCatalog(base []byte, override []byte) (*Catalog, error) {
	specs := map[string]Spec{}
	if err := yaml.Unmarshal(base, &specs); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	if len(override) > 0 {
		extra := map[string]Spec{}
		if err := yaml.Unmarshal(override, &extra); err != nil {
			return nil, fmt.Errorf("parse prompts override: %w", err)
		}
		for name, s := range extra {
			specs[name] = s
		}
	}

	c := &Catalog{templates: map[PromptName]Template{}}
	for name, s := range specs {
		t, err := MakeTemplate(PromptName(name), s)
		if err != nil {
			return nil, err
		}
		c.templates[t.Name] = t
	}
	for _, name := range AllNames() {
		if _, ok := c.templates[name]; !ok {
			return nil, fmt.Errorf("prompt catalog missing %s", name)
		}
	}
	return c, nil
}

func (c *Catalog) Build(name PromptName, in Input) (Prompt, error) {
	t, ok := c.templates[name]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	if t.Validate != nil {
		if err := t.Validate(in); err != nil {
			return Prompt{}, &InputError{Prompt: name, Err: err}
		}
	}
	system, err := t.System(in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system render: %w", name, err)
	}
	user, err := t.User(in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user render: %w", name, err)
	}
	return Prompt{
		Name:        string(t.Name),
		Version:     t.Version,
		System:      system,
		User:        user,
		JSON:        t.JSON,
		Temperature: t.Temperature,
	}, nil
}
