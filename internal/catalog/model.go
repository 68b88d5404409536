package catalog

import "github.com/everstacklabs/kai/internal/task"

// Kind is the closed set of parameter types a model schema may declare.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindArray   Kind = "array"
)

// Param describes one accepted input field of a model.
// Min and Max bound numeric values for number/integer kinds and the element
// count for arrays.
type Param struct {
	Name        string   `yaml:"name" json:"name" validate:"required"`
	Kind        Kind     `yaml:"kind" json:"kind" validate:"required,oneof=string number integer boolean enum array"`
	Required    bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Default     any      `yaml:"default,omitempty" json:"default,omitempty"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty" validate:"required_if=Kind enum,dive,required"`
	Min         *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	MaxLength   *int     `yaml:"max_length,omitempty" json:"max_length,omitempty" validate:"omitempty,gt=0"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// HasDefault reports whether the catalog declares a fallback value.
func (p *Param) HasDefault() bool {
	return p.Default != nil
}

// Pricing is the per-request cost published by the provider.
type Pricing struct {
	Credits float64 `yaml:"credits" json:"credits"`
	USD     float64 `yaml:"usd,omitempty" json:"usd,omitempty"`
	Note    string  `yaml:"note,omitempty" json:"note,omitempty"`
}

// Model is one entry of the model catalog. Entries are immutable once the
// registry has been built.
type Model struct {
	ID           string    `yaml:"id" json:"id" validate:"required"`
	Name         string    `yaml:"name" json:"name" validate:"required"`
	Provider     string    `yaml:"provider" json:"provider"`
	Category     task.Type `yaml:"category" json:"category" validate:"required,oneof=image video music"`
	Description  string    `yaml:"description,omitempty" json:"description,omitempty"`
	DocURL       string    `yaml:"doc_url,omitempty" json:"doc_url,omitempty" validate:"omitempty,url"`
	Capabilities []string  `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Pricing      *Pricing  `yaml:"pricing,omitempty" json:"pricing,omitempty"`
	Params       []Param   `yaml:"params" json:"params" validate:"dive"`
}

// Param returns the declared parameter with the given name.
func (m *Model) Param(name string) (*Param, bool) {
	for i := range m.Params {
		if m.Params[i].Name == name {
			return &m.Params[i], true
		}
	}
	return nil, false
}

// RequiredParams returns the names of parameters the caller must supply,
// which excludes required parameters that carry a default.
func (m *Model) RequiredParams() []string {
	var names []string
	for _, p := range m.Params {
		if p.Required && !p.HasDefault() {
			names = append(names, p.Name)
		}
	}
	return names
}
