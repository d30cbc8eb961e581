// Package graph implements the target namespace: a persistable DAG of
// Targets classified by TargetPrototype, owned by a Graph that also performs
// the postorder binding pass (timestamp/outdated propagation), with three
// dependency edge classes: explicit, implicit, and ordering.
package graph

import (
	"fmt"
	"strings"
	"sync"

	"forge/internal/ferrors"
	"forge/internal/forgelog"
	"forge/internal/fsys"
)

// Graph owns every Target reachable from its root, indexes them by absolute
// namespace path, and tracks the prototypes registered against it.
type Graph struct {
	mu sync.Mutex

	fs  fsys.FileSystem
	log *forgelog.Logger

	root       *Target
	byPath     map[string]*Target
	prototypes map[string]*Prototype

	traversalInProgress bool
	visitedRevision     int
	successfulRevision  int

	cacheTarget *Target
}

// New creates an empty graph rooted at "/".
func New(fs fsys.FileSystem, log *forgelog.Logger) *Graph {
	g := &Graph{
		fs:         fs,
		log:        log,
		byPath:     make(map[string]*Target),
		prototypes: make(map[string]*Prototype),
	}
	g.root = newTarget("", g)
	g.byPath["/"] = g.root
	return g
}

func (g *Graph) lock()   { g.mu.Lock() }
func (g *Graph) unlock() { g.mu.Unlock() }

// Root returns the graph's root target.
func (g *Graph) Root() *Target { return g.root }

// CacheTarget returns the target representing the persisted snapshot file
// itself, or nil if the graph has never been saved/loaded.
func (g *Graph) CacheTarget() *Target { return g.cacheTarget }

// SetCacheTarget designates target as the persisted-snapshot target; called
// by the persist package after Graph.AddTarget("<snapshot path>", ...).
func (g *Graph) SetCacheTarget(t *Target) {
	g.lock()
	defer g.unlock()
	g.cacheTarget = t
}

// AddTargetPrototype registers (or returns the existing) prototype by id.
// Idempotent: a second call with the same id returns the same object.
func (g *Graph) AddTargetPrototype(id string) *Prototype {
	g.lock()
	defer g.unlock()
	if p, ok := g.prototypes[id]; ok {
		return p
	}
	p := &Prototype{id: id}
	g.prototypes[id] = p
	return p
}

// resolve breaks id on '/' and walks/creates the namespace path starting
// from workingDirectory (or root for an absolute id or nil workingDirectory).
// Caller must hold g.mu.
func (g *Graph) resolve(id string, workingDirectory *Target) (*Target, error) {
	if id == "" {
		wd := workingDirectory
		if wd == nil {
			wd = g.root
		}
		n := wd.nextAnonymousIndex
		wd.nextAnonymousIndex++
		child := newTarget(anonymousID(n), g)
		wd.addChild(child)
		g.indexTarget(child)
		return child, nil
	}

	cur := workingDirectory
	if cur == nil || strings.HasPrefix(id, "/") {
		cur = g.root
	}

	elements := strings.Split(strings.TrimPrefix(id, "/"), "/")
	for _, element := range elements {
		if element == "" || element == "." {
			continue
		}
		if element == ".." {
			if cur.parent == nil {
				return nil, fmt.Errorf("cannot ascend above root from %q", cur.Path())
			}
			cur = cur.parent
			continue
		}
		child := cur.findChild(element)
		if child == nil {
			child = newTarget(element, g)
			cur.addChild(child)
			g.indexTarget(child)
		}
		cur = child
	}
	return cur, nil
}

func (g *Graph) indexTarget(t *Target) {
	g.byPath[t.Path()] = t
}

// AddTarget creates or finds the target named by id relative to
// workingDirectory, applying prototype on first definition. A second call
// naming a different, non-nil prototype than the one already set is a fatal
// PrototypeConflict.
func (g *Graph) AddTarget(id string, workingDirectory *Target, prototype *Prototype) (*Target, error) {
	g.lock()
	t, err := g.resolve(id, workingDirectory)
	if err != nil {
		g.unlock()
		return nil, err
	}

	firstBind := t.prototype == nil && t.workingDirectory == nil
	if t.prototype == nil && prototype != nil {
		t.prototype = prototype
	}
	if t.workingDirectory == nil {
		wd := workingDirectory
		if wd == nil {
			wd = g.root
		}
		t.workingDirectory = wd
	}

	conflict := prototype != nil && t.prototype != nil && t.prototype != prototype
	var existingID, newID string
	if conflict {
		existingID = t.prototype.ID()
		newID = prototype.ID()
	}
	path := t.Path()
	g.unlock()

	if conflict {
		return nil, ferrors.PrototypeConflict(path, existingID, newID)
	}

	if firstBind && t.prototype != nil && t.prototype.Create != nil {
		if err := t.prototype.Create(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// FindTarget looks up id relative to workingDirectory without creating
// anything, returning nil if no such target exists.
func (g *Graph) FindTarget(id string, workingDirectory *Target) *Target {
	g.lock()
	defer g.unlock()

	if id == "" {
		return nil
	}

	cur := workingDirectory
	if cur == nil || strings.HasPrefix(id, "/") {
		cur = g.root
	}

	elements := strings.Split(strings.TrimPrefix(id, "/"), "/")
	for _, element := range elements {
		if cur == nil {
			return nil
		}
		switch element {
		case "", ".":
			continue
		case "..":
			cur = cur.parent
		default:
			cur = cur.findChild(element)
		}
	}
	return cur
}

// FindTargetByPath looks up a target by its absolute namespace path, e.g. a
// buildfile target registered under its absolute filesystem path.
func (g *Graph) FindTargetByPath(path string) *Target {
	g.lock()
	defer g.unlock()
	return g.byPath[path]
}

// Targets returns every target in the graph in an unspecified but stable
// (insertion) preorder, for persistence and diagnostics.
func (g *Graph) Targets() []*Target {
	g.lock()
	defer g.unlock()
	var out []*Target
	var walk func(*Target)
	walk = func(t *Target) {
		out = append(out, t)
		for _, c := range t.children {
			walk(c)
		}
	}
	walk(g.root)
	return out
}

// Prototypes returns every registered prototype.
func (g *Graph) Prototypes() []*Prototype {
	g.lock()
	defer g.unlock()
	out := make([]*Prototype, 0, len(g.prototypes))
	for _, p := range g.prototypes {
		out = append(out, p)
	}
	return out
}

// PrototypeByID returns a previously registered prototype, or nil.
func (g *Graph) PrototypeByID(id string) *Prototype {
	g.lock()
	defer g.unlock()
	return g.prototypes[id]
}

// beginTraversal marks the graph as being walked and bumps both revision
// counters, so targets visited in a prior pass are considered unvisited.
// Returns ferrors.TraversalReentered if a traversal is already in progress.
func (g *Graph) beginTraversal() error {
	g.lock()
	defer g.unlock()
	if g.traversalInProgress {
		return ferrors.TraversalReentered()
	}
	g.traversalInProgress = true
	g.visitedRevision++
	g.successfulRevision++
	return nil
}

func (g *Graph) endTraversal() {
	g.lock()
	defer g.unlock()
	g.traversalInProgress = false
}

// TraversalInProgress reports whether a bind or postorder pass currently
// owns this graph.
func (g *Graph) TraversalInProgress() bool {
	g.lock()
	defer g.unlock()
	return g.traversalInProgress
}

// Clear discards every target, resetting the graph to a fresh root — the
// script-callable clear() used before loading a new snapshot or buildfile
// tree from scratch.
func (g *Graph) Clear() {
	g.lock()
	defer g.unlock()
	g.root = newTarget("", g)
	g.byPath = map[string]*Target{"/": g.root}
	g.prototypes = make(map[string]*Prototype)
	g.cacheTarget = nil
	g.visitedRevision = 0
	g.successfulRevision = 0
}

// Bind performs the postorder binding pass, starting from root (or from
// every target in the graph, in namespace preorder, if root is nil). It
// returns the number of required-to-exist source targets found missing from
// disk.
func (g *Graph) Bind(root *Target) (int, error) {
	if err := g.beginTraversal(); err != nil {
		return 0, err
	}
	defer g.endTraversal()

	b := &binder{graph: g}
	if root != nil {
		b.visit(root)
		return b.failures, nil
	}
	for _, t := range g.Targets() {
		b.visit(t)
	}
	return b.failures, nil
}

type binder struct {
	graph    *Graph
	failures int
}

func (b *binder) visit(t *Target) {
	g := b.graph
	g.lock()
	alreadyVisited := t.visitedRevision == g.visitedRevision
	if !alreadyVisited {
		t.visitedRevision = g.visitedRevision
		t.visiting = true
	}
	g.unlock()
	if alreadyVisited {
		return
	}
	defer func() {
		g.lock()
		t.visiting = false
		g.unlock()
	}()

	for _, dep := range t.AnyDependencies() {
		g.lock()
		cyclic := dep.visiting
		g.unlock()
		if cyclic {
			if g.log != nil {
				g.log.Warn("ignoring cyclic dependency", "from", t.Path(), "to", dep.Path())
			}
			g.lock()
			dep.successfulRevision = g.successfulRevision
			g.unlock()
			continue
		}
		b.visit(dep)
	}

	b.bindOne(t)

	g.lock()
	t.successfulRevision = g.successfulRevision
	if t.requiredToExist && len(t.filenames) > 0 && t.lastWriteTime == 0 {
		b.failures++
	}
	g.unlock()
}

func (b *binder) bindOne(t *Target) {
	g := b.graph
	g.lock()
	defer g.unlock()

	var lastWrite int64
	for _, fn := range t.filenames {
		if mt := g.fs.ModTime(fn); mt > lastWrite {
			lastWrite = mt
		}
	}
	t.lastWriteTime = lastWrite

	// Ordering dependencies gate traversal order only: they must finish
	// first but never contribute to timestamp or outdated propagation.
	maxDepTimestamp := int64(0)
	anyDepOutdated := false
	for _, dep := range t.Dependencies(Explicit) {
		if dep.timestamp > maxDepTimestamp {
			maxDepTimestamp = dep.timestamp
		}
		if dep.outdated {
			anyDepOutdated = true
		}
	}
	for _, dep := range t.Dependencies(Implicit) {
		if dep.timestamp > maxDepTimestamp {
			maxDepTimestamp = dep.timestamp
		}
		if dep.outdated {
			anyDepOutdated = true
		}
	}

	t.timestamp = lastWrite
	if maxDepTimestamp > t.timestamp {
		t.timestamp = maxDepTimestamp
	}

	switch t.bindType {
	case SourceFile:
		t.outdated = false
	case Phony:
		t.outdated = anyDepOutdated
	default: // IntermediateFile, GeneratedFile
		missing := len(t.filenames) > 0 && lastWrite == 0
		staleAgainstDep := maxDepTimestamp > t.lastWriteTime
		t.outdated = missing || staleAgainstDep || anyDepOutdated
	}
}

// VisitedRevision and SuccessfulRevision expose the graph's monotonic
// counters for tests asserting the O(1) "visited this pass" property.
func (g *Graph) VisitedRevision() int {
	g.lock()
	defer g.unlock()
	return g.visitedRevision
}

func (g *Graph) SuccessfulRevision() int {
	g.lock()
	defer g.unlock()
	return g.successfulRevision
}

// Successful reports whether t was visited successfully in the most recent
// traversal (its successfulRevision matches the graph's current one).
func (t *Target) Successful() bool {
	t.graph.lock()
	defer t.graph.unlock()
	return t.successfulRevision == t.graph.successfulRevision
}

// Height returns the target's height in the most recent scheduling pass (see
// scheduler.Compute).
func (t *Target) Height() int { return t.height }

// SetHeight is used by the scheduler package while computing ready order.
func (t *Target) SetHeight(h int) {
	t.graph.lock()
	defer t.graph.unlock()
	t.height = h
}
