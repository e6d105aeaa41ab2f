// Package eval implements the lazy output evaluator. It forces only the
// subgraph reachable from a requested key path, memoizes every forced node,
// and detects self-referential evaluation chains.
package eval

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/zerr"
)

type nodeState int

const (
	stateUnevaluated nodeState = iota
	stateEvaluating
	stateCached
)

// node is one entry of the evaluation arena. A node is forced at most once
// per evaluator; its cache entry is guarded by its own mutex, not a global one.
type node struct {
	id   string
	expr *domain.OutputExpr

	children map[string]*node
	inputs   []*node // shell build inputs, in declaration order

	mu    sync.Mutex
	state nodeState
	done  chan struct{}
	value domain.Value
	err   error
}

// Evaluator evaluates the declared output tree against one resolved input
// set. Constructing it is cheap: the arena mirrors the expression tree
// without touching the repository querier.
type Evaluator struct {
	root    *node
	inputs  domain.LockRecord
	querier ports.RepositoryQuerier
	envID   string

	// flightMu guards the wait-for bookkeeping below. owners maps a node
	// being evaluated to the request computing it; waits maps a request to
	// the node it is parked on. Together they let a request detect that
	// parking would close a wait-for loop with another request.
	flightMu sync.Mutex
	owners   map[string]*visit
	waits    map[*visit]string
}

// New builds an evaluator over the output tree for the given resolved inputs.
func New(outputs *domain.OutputExpr, inputs domain.LockRecord, querier ports.RepositoryQuerier) *Evaluator {
	e := &Evaluator{
		inputs:  inputs,
		querier: querier,
		envID:   domain.EnvironmentID(inputs.Inputs),
		owners:  make(map[string]*visit),
		waits:   make(map[*visit]string),
	}
	e.root = e.buildArena("outputs", outputs)
	return e
}

// ID returns the deterministic identity of the resolved input set this
// evaluator is bound to.
func (e *Evaluator) ID() string {
	return e.envID
}

func (e *Evaluator) buildArena(id string, expr *domain.OutputExpr) *node {
	n := &node{id: id, expr: expr}

	switch expr.Kind {
	case domain.ExprAttrs:
		n.children = make(map[string]*node, len(expr.Attrs))
		for name, child := range expr.Attrs {
			n.children[name] = e.buildArena(id+"."+name, child)
		}
	case domain.ExprShell:
		n.inputs = make([]*node, 0, len(expr.BuildInputs))
		for i, child := range expr.BuildInputs {
			childID := id + ".buildInputs." + strconv.Itoa(i)
			n.inputs = append(n.inputs, e.buildArena(childID, child))
		}
	}

	return n
}

// Evaluate forces the node named by keyPath and returns its value.
// Only nodes along the path (and whatever a forced leaf itself needs) are
// evaluated; sibling branches are never touched.
func (e *Evaluator) Evaluate(ctx context.Context, keyPath []string) (domain.Value, error) {
	v := &visit{}
	n, err := e.navigate(ctx, e.root, keyPath, v)
	if err != nil {
		return domain.Value{}, err
	}
	return e.force(ctx, n, v)
}

// visit is the request-local evaluation path, used for cycle detection and
// for reporting the cycle chain.
type visit struct {
	path []string
	seen map[string]bool
}

func (v *visit) push(id string) {
	if v.seen == nil {
		v.seen = make(map[string]bool)
	}
	v.seen[id] = true
	v.path = append(v.path, id)
}

func (v *visit) pop() {
	id := v.path[len(v.path)-1]
	v.path = v.path[:len(v.path)-1]
	delete(v.seen, id)
}

// navigate walks the attribute tree segment by segment, forcing only the
// nodes on the path. A missing segment reports the siblings available at
// that point.
func (e *Evaluator) navigate(ctx context.Context, from *node, keyPath []string, v *visit) (*node, error) {
	current := from
	for _, segment := range keyPath {
		value, err := e.force(ctx, current, v)
		if err != nil {
			return nil, err
		}
		if value.Kind != domain.ValueAttrs {
			err := domain.WithDetail(domain.ErrMissingOutput, "segment", segment)
			return nil, zerr.With(err, "at", current.id)
		}

		child, ok := current.children[segment]
		if !ok {
			err := domain.WithDetail(domain.ErrMissingOutput, "segment", segment)
			err = zerr.With(err, "at", current.id)
			return nil, zerr.With(err, "available", strings.Join(value.AttrNames, ", "))
		}
		current = child
	}
	return current, nil
}

// force evaluates a node exactly once. Concurrent callers of the same node
// serialize on its cache entry; re-entrant forcing within one request is a
// cycle.
func (e *Evaluator) force(ctx context.Context, n *node, v *visit) (domain.Value, error) {
	n.mu.Lock()
	switch n.state {
	case stateCached:
		n.mu.Unlock()
		return n.value, n.err
	case stateEvaluating:
		done := n.done
		n.mu.Unlock()
		if v.seen[n.id] {
			return domain.Value{}, e.cycleError(v, n.id)
		}
		if !e.registerWait(v, n.id) {
			// Parking here would deadlock with the request that owns this
			// node: the evaluation chains close a loop across requests.
			return domain.Value{}, e.cycleError(v, n.id)
		}
		// Another request is computing this node; wait for its result.
		select {
		case <-done:
		case <-ctx.Done():
			e.clearWait(v)
			return domain.Value{}, ctx.Err()
		}
		e.clearWait(v)
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.value, n.err
	}

	n.state = stateEvaluating
	n.done = make(chan struct{})
	n.mu.Unlock()

	e.flightMu.Lock()
	e.owners[n.id] = v
	e.flightMu.Unlock()

	v.push(n.id)
	value, err := e.compute(ctx, n, v)
	v.pop()

	e.flightMu.Lock()
	delete(e.owners, n.id)
	e.flightMu.Unlock()

	n.mu.Lock()
	n.value = value
	n.err = err
	n.state = stateCached
	close(n.done)
	n.mu.Unlock()

	return value, err
}

// registerWait records that request v is about to park on the node id and
// reports whether parking is safe. It walks the owner-of/waits-on chain
// starting at id; finding v on that chain means the park would complete a
// cycle of requests all waiting on each other.
func (e *Evaluator) registerWait(v *visit, id string) bool {
	e.flightMu.Lock()
	defer e.flightMu.Unlock()

	next := id
	for {
		owner, ok := e.owners[next]
		if !ok {
			break // owner already published; the done channel is (or will be) closed
		}
		if owner == v {
			return false
		}
		next, ok = e.waits[owner]
		if !ok {
			break
		}
	}

	e.waits[v] = id
	return true
}

func (e *Evaluator) clearWait(v *visit) {
	e.flightMu.Lock()
	delete(e.waits, v)
	e.flightMu.Unlock()
}

func (e *Evaluator) compute(ctx context.Context, n *node, v *visit) (domain.Value, error) {
	switch n.expr.Kind {
	case domain.ExprLiteral:
		return domain.Value{Kind: domain.ValueString, Str: n.expr.Literal}, nil

	case domain.ExprAttrs:
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		slices.Sort(names)
		return domain.Value{Kind: domain.ValueAttrs, AttrNames: names}, nil

	case domain.ExprPackage:
		return e.lookupPackage(ctx, n)

	case domain.ExprShell:
		return e.forceShell(ctx, n, v)

	case domain.ExprRef:
		target, err := e.navigate(ctx, e.root, n.expr.Ref, v)
		if err != nil {
			return domain.Value{}, err
		}
		return e.force(ctx, target, v)

	default:
		return domain.Value{}, zerr.With(zerr.New("unknown expression kind"), "node", n.id)
	}
}

func (e *Evaluator) lookupPackage(ctx context.Context, n *node) (domain.Value, error) {
	inputName := n.expr.Input.String()
	ref, ok := e.inputs.Lookup(inputName)
	if !ok {
		err := domain.WithDetail(domain.ErrUnknownInput, "input", inputName)
		return domain.Value{}, zerr.With(err, "node", n.id)
	}

	pkg, found, err := e.querier.Lookup(ctx, ref, n.expr.AttrPath)
	if err != nil {
		lookupErr := zerr.Wrap(err, "package lookup failed")
		lookupErr = zerr.With(lookupErr, "input", inputName)
		return domain.Value{}, zerr.With(lookupErr, "node", n.id)
	}
	if !found {
		attrs, attrsErr := e.querier.Attrs(ctx, ref)
		missingErr := domain.WithDetail(domain.ErrMissingOutput, "segment", strings.Join(n.expr.AttrPath, "."))
		missingErr = zerr.With(missingErr, "input", inputName)
		if attrsErr == nil {
			slices.Sort(attrs)
			missingErr = zerr.With(missingErr, "available", strings.Join(attrs, ", "))
		}
		return domain.Value{}, missingErr
	}

	return domain.Value{Kind: domain.ValuePackage, Package: pkg}, nil
}

func (e *Evaluator) forceShell(ctx context.Context, n *node, v *visit) (domain.Value, error) {
	refs := make([]domain.PackageReference, 0, len(n.inputs))
	for _, input := range n.inputs {
		value, err := e.force(ctx, input, v)
		if err != nil {
			return domain.Value{}, err
		}
		if value.Kind != domain.ValuePackage {
			err := zerr.With(zerr.New("shell build input is not a package"), "node", input.id)
			return domain.Value{}, err
		}
		refs = append(refs, value.Package)
	}
	return domain.Value{Kind: domain.ValueShell, BuildInputs: refs}, nil
}

// cycleError constructs an error carrying the cycle chain, e.g.
// "outputs.a -> outputs.b -> outputs.a".
func (e *Evaluator) cycleError(v *visit, id string) error {
	start := 0
	for i, seen := range v.path {
		if seen == id {
			start = i
			break
		}
	}

	var builder strings.Builder
	for _, seen := range v.path[start:] {
		builder.WriteString(seen)
		builder.WriteString(" -> ")
	}
	builder.WriteString(id)

	return domain.WithDetail(domain.ErrEvaluationCycle, "cycle", builder.String())
}
