package domain

// ExprKind discriminates the forms an output expression can take.
type ExprKind int

const (
	// ExprLiteral is a plain string value.
	ExprLiteral ExprKind = iota

	// ExprAttrs is an attribute set of named child expressions.
	ExprAttrs

	// ExprPackage looks a package up in a resolved input ("<input>#<attr.path>").
	ExprPackage

	// ExprShell declares a shell environment over a list of build inputs.
	ExprShell

	// ExprRef refers to another output by key path ("ref:<dotted.path>").
	ExprRef
)

// OutputExpr is one node of the declared output tree. The tree is built at
// load time and stays inert until an evaluator forces a branch of it.
type OutputExpr struct {
	// Kind selects which of the remaining fields is meaningful.
	Kind ExprKind

	// Literal holds the string value for ExprLiteral.
	Literal string

	// Attrs holds named children for ExprAttrs.
	Attrs map[string]*OutputExpr

	// Input names the declared input an ExprPackage reads.
	Input InternedString

	// AttrPath is the attribute path within the input for ExprPackage.
	AttrPath []string

	// BuildInputs lists the dependency expressions of an ExprShell.
	BuildInputs []*OutputExpr

	// Ref is the target key path of an ExprRef.
	Ref []string
}
