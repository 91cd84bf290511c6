package persona

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultCatalog []byte

// ErrUnknownPersona is returned for an id that is not in the catalog.
var ErrUnknownPersona = errors.New("unknown persona")

// Catalog is the read-only set of personas. The first entry is the default.
type Catalog struct {
	personas []Persona
	byID     map[string]int
}

type catalogFile struct {
	Personas []Persona `yaml:"personas"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse reads a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse persona catalog")
	}
	return New(f.Personas...)
}

// LoadFile reads a catalog from disk, falling back to the built-in one for an empty path.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read persona catalog %s", path)
	}
	return Parse(data)
}

// New builds a catalog from personas in display order.
func New(personas ...Persona) (*Catalog, error) {
	if len(personas) == 0 {
		return nil, errors.New("persona catalog is empty")
	}
	c := &Catalog{byID: make(map[string]int, len(personas))}
	for _, p := range personas {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate persona id %q", p.ID)
		}
		c.byID[p.ID] = len(c.personas)
		c.personas = append(c.personas, p)
	}
	return c, nil
}

// Get looks up a persona by id.
func (c *Catalog) Get(id string) (Persona, error) {
	i, ok := c.byID[id]
	if !ok {
		return Persona{}, errors.Wrapf(ErrUnknownPersona, "%q", id)
	}
	return c.personas[i], nil
}

// First returns the default persona.
func (c *Catalog) First() Persona {
	return c.personas[0]
}

// List returns every persona in display order.
func (c *Catalog) List() []Persona {
	return append([]Persona(nil), c.personas...)
}
