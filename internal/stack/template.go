// Package stack is the read model of a synthesized CloudFormation template:
// the declarative document handed to the provisioning engine. Templates are
// produced by the construct library and decoded here for inspection,
// rendering and serialization.
package stack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FormatVersion is the only template format version CloudFormation accepts.
const FormatVersion = "2010-09-09"

// Deletion and replacement policies.
const (
	PolicyDelete   = "Delete"
	PolicyRetain   = "Retain"
	PolicySnapshot = "Snapshot"
)

// Template is the top-level CloudFormation document.
type Template struct {
	AWSTemplateFormatVersion string                `json:"AWSTemplateFormatVersion,omitempty" yaml:"AWSTemplateFormatVersion,omitempty"`
	Description              string                `json:"Description,omitempty" yaml:"Description,omitempty"`
	Metadata                 map[string]any        `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
	Parameters               map[string]*Parameter `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Mappings                 map[string]any        `json:"Mappings,omitempty" yaml:"Mappings,omitempty"`
	Conditions               map[string]any        `json:"Conditions,omitempty" yaml:"Conditions,omitempty"`
	Rules                    map[string]any        `json:"Rules,omitempty" yaml:"Rules,omitempty"`
	Resources                map[string]*Resource  `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]*Output    `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// Parameter is a value supplied to the engine at deploy time.
type Parameter struct {
	Type          string `json:"Type" yaml:"Type"`
	Description   string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any    `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []any  `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
	NoEcho        bool   `json:"NoEcho,omitempty" yaml:"NoEcho,omitempty"`
}

// Resource is a single declared resource.
type Resource struct {
	Type                string         `json:"Type" yaml:"Type"`
	Condition           string         `json:"Condition,omitempty" yaml:"Condition,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
	CreationPolicy      map[string]any `json:"CreationPolicy,omitempty" yaml:"CreationPolicy,omitempty"`
	UpdatePolicy        map[string]any `json:"UpdatePolicy,omitempty" yaml:"UpdatePolicy,omitempty"`
	Metadata            map[string]any `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
}

// Output is a stack output.
type Output struct {
	Description string         `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any            `json:"Value" yaml:"Value"`
	Condition   string         `json:"Condition,omitempty" yaml:"Condition,omitempty"`
	Export      map[string]any `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Decode parses a JSON template. Numbers come back as int when they are
// integral and float64 otherwise, so property values compare naturally.
func Decode(data []byte) (*Template, error) {
	var t Template
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding template: %w", err)
	}
	if t.Resources == nil {
		return nil, fmt.Errorf("decoding template: no Resources section")
	}

	t.Metadata = normalizeMap(t.Metadata)
	t.Mappings = normalizeMap(t.Mappings)
	t.Conditions = normalizeMap(t.Conditions)
	t.Rules = normalizeMap(t.Rules)
	for _, p := range t.Parameters {
		p.Default = normalize(p.Default)
		for i, v := range p.AllowedValues {
			p.AllowedValues[i] = normalize(v)
		}
	}
	for _, r := range t.Resources {
		r.Properties = normalizeMap(r.Properties)
		r.Metadata = normalizeMap(r.Metadata)
		r.CreationPolicy = normalizeMap(r.CreationPolicy)
		r.UpdatePolicy = normalizeMap(r.UpdatePolicy)
	}
	for _, o := range t.Outputs {
		o.Value = normalize(o.Value)
		o.Export = normalizeMap(o.Export)
	}
	return &t, nil
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		return normalizeMap(val)
	case []any:
		for i, inner := range val {
			val[i] = normalize(inner)
		}
		return val
	default:
		return v
	}
}

// Resource returns the resource registered under id.
func (t *Template) Resource(id string) (*Resource, bool) {
	r, ok := t.Resources[id]
	return r, ok
}

// IDsOfType returns the sorted logical IDs of every resource of the given type.
func (t *Template) IDsOfType(typ string) []string {
	var ids []string
	for id, r := range t.Resources {
		if r.Type == typ {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// LogicalIDs returns every logical ID in sorted order.
func (t *Template) LogicalIDs() []string {
	ids := make([]string, 0, len(t.Resources))
	for id := range t.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
