// Package dto holds the on-disk shape of module definitions. The same
// documents are decoded from YAML files, JSON and Loam front matter, so every
// field carries yaml, json and mapstructure tags.
package dto

// ModuleDocument is a module as authored.
type ModuleDocument struct {
	ID           string            `yaml:"id" json:"id" mapstructure:"id"`
	Title        string            `yaml:"title" json:"title" mapstructure:"title"`
	Description  string            `yaml:"description" json:"description" mapstructure:"description"`
	Entry        string            `yaml:"entry" json:"entry" mapstructure:"entry"`
	Entries      map[string]string `yaml:"entries" json:"entries" mapstructure:"entries"`
	RequiredData []string          `yaml:"requiredData" json:"requiredData" mapstructure:"requiredData"`
	Nodes        []NodeDocument    `yaml:"nodes" json:"nodes" mapstructure:"nodes"`
}

// NodeDocument is a question as authored.
//
// Next is either a node id or a list of branches; each branch is a mapping
// with "to" and an optional "when", or a bare node id for an unconditional
// branch. "when" is a shorthand expression or a structured ConditionDocument.
type NodeDocument struct {
	ID           string           `yaml:"id" json:"id" mapstructure:"id"`
	Text         string           `yaml:"text" json:"text" mapstructure:"text"`
	Type         string           `yaml:"type" json:"type" mapstructure:"type"`
	Min          *float64         `yaml:"min" json:"min" mapstructure:"min"`
	Max          *float64         `yaml:"max" json:"max" mapstructure:"max"`
	Unit         string           `yaml:"unit" json:"unit" mapstructure:"unit"`
	Options      []OptionDocument `yaml:"options" json:"options" mapstructure:"options"`
	Criticality  string           `yaml:"criticality" json:"criticality" mapstructure:"criticality"`
	CriticalStop bool             `yaml:"criticalStop" json:"criticalStop" mapstructure:"criticalStop"`
	SaveTo       string           `yaml:"saveTo" json:"saveTo" mapstructure:"saveTo"`
	Next         any              `yaml:"next" json:"next" mapstructure:"next"`
}

// OptionDocument is a choice as authored. Value defaults to Label.
type OptionDocument struct {
	Label     string `yaml:"label" json:"label" mapstructure:"label"`
	Value     any    `yaml:"value" json:"value" mapstructure:"value"`
	RiskLevel string `yaml:"riskLevel" json:"riskLevel" mapstructure:"riskLevel"`
	Exclusive bool   `yaml:"exclusive" json:"exclusive" mapstructure:"exclusive"`
}

// BranchDocument is one entry of a branch list.
type BranchDocument struct {
	To   string `mapstructure:"to"`
	When any    `mapstructure:"when"`
}

// ConditionDocument is the structured form of a condition.
type ConditionDocument struct {
	Op       string   `mapstructure:"op"`
	Key      string   `mapstructure:"key"`
	Value    any      `mapstructure:"value"`
	Min      *float64 `mapstructure:"min"`
	Max      *float64 `mapstructure:"max"`
	Fallback any      `mapstructure:"fallback"`
	Terms    []any    `mapstructure:"terms"`
}
