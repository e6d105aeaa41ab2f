package descriptor

import "gopkg.in/yaml.v3"

// SchemaVersion is the descriptor schema version this loader understands.
// An absent version field is read as the current version.
const SchemaVersion = "1"

// descriptorFile represents the structure of the pin.yaml descriptor file.
type descriptorFile struct {
	Version string              `yaml:"version"`
	Inputs  map[string]inputDTO `yaml:"inputs"`
	Outputs any                 `yaml:"outputs"`
}

// inputDTO represents one input declaration in the descriptor.
// A bare string is shorthand for the url form: `nixpkgs: github:NixOS/nixpkgs`.
type inputDTO struct {
	URL     string `yaml:"url"`
	Follows string `yaml:"follows"`
}

// UnmarshalYAML implements yaml.Unmarshaler to accept the string shorthand.
func (d *inputDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.URL = node.Value
		return nil
	}

	type plain inputDTO
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = inputDTO(p)
	return nil
}

// shellDTO represents a shell declaration in the output tree.
type shellDTO struct {
	BuildInputs []string `yaml:"buildInputs"`
}
