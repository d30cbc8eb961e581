package graph

import "sort"

// BindType controls how a target's outdatedness is computed at bind time.
type BindType int

const (
	// Phony targets have no backing file; they are outdated iff any
	// dependency is outdated.
	Phony BindType = iota
	// SourceFile targets are never outdated — they are the leaves a build
	// reads from, not writes to.
	SourceFile
	// IntermediateFile targets are rebuilt but not installed/published.
	IntermediateFile
	// GeneratedFile targets are the final build products.
	GeneratedFile
)

func (b BindType) String() string {
	switch b {
	case Phony:
		return "phony"
	case SourceFile:
		return "source_file"
	case IntermediateFile:
		return "intermediate_file"
	case GeneratedFile:
		return "generated_file"
	default:
		return "unknown"
	}
}

// DependencyClass distinguishes the three edge kinds a target can carry.
// Their union, in this order, is the "any_dependency" sequence.
type DependencyClass int

const (
	Explicit DependencyClass = iota
	Implicit
	Ordering
)

// Target is a node in the build namespace: a tree of ids, cross-cut by a
// dependency DAG (tolerated cycles broken at traversal time).
type Target struct {
	id    string
	graph *Graph

	prototype        *Prototype
	workingDirectory *Target
	parent           *Target
	children         []*Target
	childIndex       map[string]int

	filenames     []string
	timestamp     int64
	lastWriteTime int64
	bindType      BindType

	cleanable          bool
	built              bool
	outdated           bool
	referencedByScript bool
	requiredToExist    bool

	visiting            bool
	visitedRevision     int
	successfulRevision  int
	height              int
	nextAnonymousIndex  int

	explicitDeps []*Target
	implicitDeps []*Target
	orderingDeps []*Target
}

func newTarget(id string, g *Graph) *Target {
	return &Target{
		id:         id,
		graph:      g,
		childIndex: make(map[string]int),
	}
}

// ID returns the target's identifier, unique among its siblings.
func (t *Target) ID() string { return t.id }

// Path returns the absolute, "/"-delimited namespace path from the root.
func (t *Target) Path() string {
	if t.parent == nil {
		return "/"
	}
	if t.parent.parent == nil {
		return "/" + t.id
	}
	return t.parent.Path() + "/" + t.id
}

// Branch returns the path of this target's parent, i.e. the directory it is
// nested under in the namespace.
func (t *Target) Branch() string {
	if t.parent == nil {
		return ""
	}
	return t.parent.Path()
}

// Prototype returns the target's class, or nil if it has none.
func (t *Target) Prototype() *Prototype { return t.prototype }

// Parent returns the target's sole namespace parent, or nil for the root.
func (t *Target) Parent() *Target { return t.parent }

// WorkingDirectory returns the target relative paths in this target's build
// function are resolved against.
func (t *Target) WorkingDirectory() *Target { return t.workingDirectory }

// SetWorkingDirectory overrides the working directory (script-callable).
func (t *Target) SetWorkingDirectory(wd *Target) {
	t.graph.lock()
	defer t.graph.unlock()
	t.workingDirectory = wd
}

// Children returns this target's namespace children in insertion order.
func (t *Target) Children() []*Target {
	out := make([]*Target, len(t.children))
	copy(out, t.children)
	return out
}

// Filenames returns the absolute paths this target is bound to.
func (t *Target) Filenames() []string {
	out := make([]string, len(t.filenames))
	copy(out, t.filenames)
	return out
}

// Filename returns the i'th (0-based) bound filename, or "" if out of range.
func (t *Target) Filename(i int) string {
	if i < 0 || i >= len(t.filenames) {
		return ""
	}
	return t.filenames[i]
}

// SetFilename sets the i'th bound filename, growing the slice as needed.
func (t *Target) SetFilename(filename string, i int) {
	t.graph.lock()
	defer t.graph.unlock()
	for len(t.filenames) <= i {
		t.filenames = append(t.filenames, "")
	}
	t.filenames[i] = filename
}

// AddFilename appends a new bound filename (multi-output rules).
func (t *Target) AddFilename(filename string) {
	t.graph.lock()
	defer t.graph.unlock()
	t.filenames = append(t.filenames, filename)
}

// BindType returns how this target's outdatedness is computed.
func (t *Target) BindType() BindType { return t.bindType }

// SetBindType sets the bind classification.
func (t *Target) SetBindType(bt BindType) {
	t.graph.lock()
	defer t.graph.unlock()
	t.bindType = bt
}

// Timestamp returns the propagated timestamp computed by the last bind pass.
func (t *Target) Timestamp() int64 { return t.timestamp }

// LastWriteTime returns the newest mtime among Filenames() at the last bind.
func (t *Target) LastWriteTime() int64 { return t.lastWriteTime }

// Outdated reports whether the last bind pass found this target out of date.
func (t *Target) Outdated() bool { return t.outdated }

// Cleanable reports whether `forge clean` should remove this target's files.
func (t *Target) Cleanable() bool { return t.cleanable }

// SetCleanable marks whether this target participates in `forge clean`.
func (t *Target) SetCleanable(v bool) {
	t.graph.lock()
	defer t.graph.unlock()
	t.cleanable = v
}

// Built reports whether this target's build function has run to completion.
func (t *Target) Built() bool { return t.built }

// SetBuilt marks the target as built (script-callable, e.g. after a no-op
// build function has satisfied the target some other way).
func (t *Target) SetBuilt(v bool) {
	t.graph.lock()
	defer t.graph.unlock()
	t.built = v
}

// RequiredToExist marks a SOURCE_FILE target whose absence at bind time is a
// hard failure rather than silent staleness.
func (t *Target) SetRequiredToExist(v bool) {
	t.graph.lock()
	defer t.graph.unlock()
	t.requiredToExist = v
}

func (t *Target) IsRequiredToExist() bool { return t.requiredToExist }

// Anonymous returns the next anonymous child id of the form "$$<n>" for this
// target acting as a working directory, guaranteed never to collide.
func (t *Target) Anonymous() string {
	t.graph.lock()
	defer t.graph.unlock()
	n := t.nextAnonymousIndex
	t.nextAnonymousIndex++
	return anonymousID(n)
}

func anonymousID(n int) string {
	// "$$<n>" — deliberately simple and collision-free.
	digits := []byte{}
	if n == 0 {
		digits = []byte{'0'}
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return "$$" + string(digits)
}

// addChild inserts child as a namespace child of t, assumed already
// locked by the caller.
func (t *Target) addChild(child *Target) {
	t.childIndex[child.id] = len(t.children)
	t.children = append(t.children, child)
	child.parent = t
}

func (t *Target) findChild(id string) *Target {
	idx, ok := t.childIndex[id]
	if !ok {
		return nil
	}
	return t.children[idx]
}

// Dependencies returns the requested dependency class.
func (t *Target) Dependencies(class DependencyClass) []*Target {
	switch class {
	case Explicit:
		return cloneSlice(t.explicitDeps)
	case Implicit:
		return cloneSlice(t.implicitDeps)
	case Ordering:
		return cloneSlice(t.orderingDeps)
	default:
		return nil
	}
}

// AnyDependencies returns explicit ++ implicit ++ ordering, the union
// presented to traversal.
func (t *Target) AnyDependencies() []*Target {
	out := make([]*Target, 0, len(t.explicitDeps)+len(t.implicitDeps)+len(t.orderingDeps))
	out = append(out, t.explicitDeps...)
	out = append(out, t.implicitDeps...)
	out = append(out, t.orderingDeps...)
	return out
}

func cloneSlice(s []*Target) []*Target {
	out := make([]*Target, len(s))
	copy(out, s)
	return out
}

// AddDependency adds an explicit dependency edge, deduplicated on insert.
func (t *Target) AddDependency(dep *Target) {
	t.graph.lock()
	defer t.graph.unlock()
	t.explicitDeps = appendUnique(t.explicitDeps, dep)
}

// AddImplicitDependency adds an implicit (e.g. scanned header) dependency.
func (t *Target) AddImplicitDependency(dep *Target) {
	t.graph.lock()
	defer t.graph.unlock()
	t.implicitDeps = appendUnique(t.implicitDeps, dep)
}

// ClearImplicitDependencies drops all implicit edges, e.g. before rescanning.
func (t *Target) ClearImplicitDependencies() {
	t.graph.lock()
	defer t.graph.unlock()
	t.implicitDeps = nil
}

// AddOrderingDependency adds an ordering-only dependency: it must finish
// first, but its outdatedness and timestamp never make this target outdated.
func (t *Target) AddOrderingDependency(dep *Target) {
	t.graph.lock()
	defer t.graph.unlock()
	t.orderingDeps = appendUnique(t.orderingDeps, dep)
}

// RemoveDependency removes dep from the explicit dependency sequence.
func (t *Target) RemoveDependency(dep *Target) {
	t.graph.lock()
	defer t.graph.unlock()
	t.explicitDeps = removeTarget(t.explicitDeps, dep)
}

func appendUnique(deps []*Target, dep *Target) []*Target {
	for _, d := range deps {
		if d == dep {
			return deps
		}
	}
	return append(deps, dep)
}

func removeTarget(deps []*Target, dep *Target) []*Target {
	out := deps[:0:0]
	for _, d := range deps {
		if d != dep {
			out = append(out, d)
		}
	}
	return out
}

// sortedChildIDs is a test/debug helper returning child ids sorted
// alphabetically — exposed for deterministic printing.
func (t *Target) sortedChildIDs() []string {
	ids := make([]string, len(t.children))
	for i, c := range t.children {
		ids[i] = c.id
	}
	sort.Strings(ids)
	return ids
}
