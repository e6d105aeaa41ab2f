// Package descriptor provides the loader for pin.yaml descriptor files.
package descriptor

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the descriptor file name looked up in the working directory.
const DefaultFilename = "pin.yaml"

// FileLoader implements ports.DescriptorLoader using a YAML file.
type FileLoader struct {
	Filename string
}

// NewLoader creates a FileLoader for the default descriptor file name.
func NewLoader() *FileLoader {
	return &FileLoader{Filename: DefaultFilename}
}

// Load reads the descriptor from the given working directory.
func (l *FileLoader) Load(cwd string) (*domain.Descriptor, error) {
	path := filepath.Join(cwd, l.Filename)
	return Load(path)
}

// Load reads a descriptor file from the given path.
func Load(path string) (*domain.Descriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read descriptor file")
	}

	var file descriptorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse descriptor file")
	}

	if file.Version != "" && file.Version != SchemaVersion {
		err := zerr.New("unsupported descriptor version")
		err = zerr.With(err, "version", file.Version)
		return nil, zerr.With(err, "supported", SchemaVersion)
	}

	inputs, err := buildInputs(file.Inputs)
	if err != nil {
		return nil, err
	}

	outputs, err := buildExpr(file.Outputs, inputs)
	if err != nil {
		return nil, err
	}
	if outputs == nil {
		outputs = &domain.OutputExpr{Kind: domain.ExprAttrs, Attrs: map[string]*domain.OutputExpr{}}
	}
	if outputs.Kind != domain.ExprAttrs {
		return nil, zerr.New("outputs must be an attribute set")
	}

	return &domain.Descriptor{
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}

func buildInputs(dtos map[string]inputDTO) (map[string]domain.InputDeclaration, error) {
	inputs := make(map[string]domain.InputDeclaration, len(dtos))

	for name, dto := range dtos {
		if name == "" {
			return nil, zerr.New("input name must not be empty")
		}

		decl := domain.InputDeclaration{Name: domain.NewInternedString(name)}

		switch {
		case dto.Follows != "" && dto.URL != "":
			err := zerr.New("input declares both url and follows")
			return nil, zerr.With(err, "input", name)
		case dto.Follows != "":
			decl.Follows = domain.NewInternedString(dto.Follows)
		case dto.URL != "":
			locator, err := domain.ParseLocator(dto.URL)
			if err != nil {
				return nil, zerr.With(err, "input", name)
			}
			decl.Locator = locator
		default:
			err := zerr.New("input declares neither url nor follows")
			return nil, zerr.With(err, "input", name)
		}

		inputs[name] = decl
	}

	// Second pass: follows targets must exist and must resolve in one hop.
	for name, decl := range inputs {
		target := decl.Follows.String()
		if target == "" {
			continue
		}
		targetDecl, ok := inputs[target]
		if !ok {
			err := domain.WithDetail(domain.ErrUnknownInput, "input", name)
			return nil, zerr.With(err, "follows", target)
		}
		if targetDecl.Follows.String() != "" {
			err := zerr.New("chained follows is not supported")
			err = zerr.With(err, "input", name)
			return nil, zerr.With(err, "follows", target)
		}
	}

	return inputs, nil
}

// buildExpr converts a decoded YAML value into an output expression.
//
// Leaf strings take three forms: "ref:<dotted.path>" refers to another
// output, "<input>#<attr.path>" looks a package up in an input, and anything
// else is a literal. A mapping with a single "shell" key declares a shell;
// any other mapping is an attribute set.
func buildExpr(raw any, inputs map[string]domain.InputDeclaration) (*domain.OutputExpr, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil

	case string:
		return buildLeafExpr(value, inputs)

	case map[string]any:
		if shell, ok := value["shell"]; ok && len(value) == 1 {
			return buildShellExpr(shell, inputs)
		}

		attrs := make(map[string]*domain.OutputExpr, len(value))
		for name, child := range value {
			expr, err := buildExpr(child, inputs)
			if err != nil {
				return nil, zerr.With(err, "attr", name)
			}
			if expr == nil {
				continue
			}
			attrs[name] = expr
		}
		return &domain.OutputExpr{Kind: domain.ExprAttrs, Attrs: attrs}, nil

	default:
		return nil, zerr.New("unsupported output expression type")
	}
}

func buildLeafExpr(value string, inputs map[string]domain.InputDeclaration) (*domain.OutputExpr, error) {
	if target, ok := strings.CutPrefix(value, "ref:"); ok {
		if target == "" {
			return nil, zerr.New("empty ref target")
		}
		return &domain.OutputExpr{
			Kind: domain.ExprRef,
			Ref:  strings.Split(target, "."),
		}, nil
	}

	if input, attrPath, ok := strings.Cut(value, "#"); ok {
		if input == "" || attrPath == "" {
			return nil, zerr.With(zerr.New("malformed package reference"), "value", value)
		}
		if _, declared := inputs[input]; !declared {
			return nil, domain.WithDetail(domain.ErrUnknownInput, "input", input)
		}
		return &domain.OutputExpr{
			Kind:     domain.ExprPackage,
			Input:    domain.NewInternedString(input),
			AttrPath: strings.Split(attrPath, "."),
		}, nil
	}

	return &domain.OutputExpr{Kind: domain.ExprLiteral, Literal: value}, nil
}

func buildShellExpr(raw any, inputs map[string]domain.InputDeclaration) (*domain.OutputExpr, error) {
	var dto shellDTO
	node, err := yaml.Marshal(raw)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to re-encode shell declaration")
	}
	if err := yaml.Unmarshal(node, &dto); err != nil {
		return nil, zerr.Wrap(err, "malformed shell declaration")
	}

	expr := &domain.OutputExpr{Kind: domain.ExprShell}
	for _, entry := range dto.BuildInputs {
		child, err := buildLeafExpr(entry, inputs)
		if err != nil {
			return nil, err
		}
		expr.BuildInputs = append(expr.BuildInputs, child)
	}
	return expr, nil
}
