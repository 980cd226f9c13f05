package stack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a template serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown template format %q (want json or yaml)", s)
	}
}

// Marshal serializes the template. Map keys are emitted in sorted order by
// both encoders, so equal templates always produce equal bytes.
func (t *Template) Marshal(f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return nil, fmt.Errorf("encoding template as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding template as yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding template as json: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// Body returns the compact JSON form sent to the engine.
func (t *Template) Body() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding template body: %w", err)
	}
	return string(data), nil
}
