package domain

import "slices"

// Descriptor is the loaded, immutable form of a descriptor file: the declared
// inputs and the inert output tree.
type Descriptor struct {
	// Inputs maps input names to their declarations.
	Inputs map[string]InputDeclaration

	// Outputs is the root attribute set of the declared outputs.
	Outputs *OutputExpr
}

// InputNames returns the declared input names in lexical order.
func (d *Descriptor) InputNames() []string {
	names := make([]string, 0, len(d.Inputs))
	for name := range d.Inputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Declarations returns the input declarations ordered by name.
func (d *Descriptor) Declarations() []InputDeclaration {
	decls := make([]InputDeclaration, 0, len(d.Inputs))
	for _, name := range d.InputNames() {
		decls = append(decls, d.Inputs[name])
	}
	return decls
}
