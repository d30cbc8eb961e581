// Package persist saves and restores a graph.Graph as a binary snapshot,
// preserving target identity across dependency cycles with a two-phase
// allocate-then-link decode. Snapshots are written atomically via
// github.com/google/renameio (temp file + rename), the same pattern
// distri-go uses for its package-state cache, so a crash mid-write never
// corrupts the on-disk snapshot a subsequent build would load.
package persist

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/google/renameio"

	"forge/internal/ferrors"
	"forge/internal/graph"
)

const magic = "forge-snapshot-v1"

// record is the wire shape of one target, referencing others by index so
// gob can encode a cyclic graph as a flat, order-independent table.
type record struct {
	Index            int
	ID               string
	ParentIndex      int // -1 for the root
	PrototypeID      string
	WorkingDirIndex  int // -1 if unset
	Filenames        []string
	BindType         int
	Cleanable        bool
	Built            bool
	RequiredToExist  bool
	ExplicitIndexes  []int
	ImplicitIndexes  []int
	OrderingIndexes  []int
}

type snapshot struct {
	Magic      string
	Records    []record
	CacheIndex int // -1 if the graph has no designated cache target
}

// Save writes every target reachable from g's root to path as an atomically
// replaced binary file. The snapshot file itself is registered as a
// GENERATED_FILE target (graph.Graph.CacheTarget) before the target list is
// captured, so the snapshot participates in the graph it describes: a
// buildfile can depend on it, and loading the snapshot back restores the
// same designation.
func Save(g *graph.Graph, path string) error {
	cacheTarget := g.CacheTarget()
	if cacheTarget == nil {
		t, err := g.AddTarget(path, nil, nil)
		if err != nil {
			return err
		}
		t.SetBindType(graph.GeneratedFile)
		if len(t.Filenames()) == 0 {
			t.SetFilename(path, 0)
		}
		g.SetCacheTarget(t)
		cacheTarget = t
	}

	targets := g.Targets()
	index := make(map[*graph.Target]int, len(targets))
	for i, t := range targets {
		index[t] = i
	}

	idxOf := func(t *graph.Target) int {
		if t == nil {
			return -1
		}
		return index[t]
	}

	snap := snapshot{Magic: magic, Records: make([]record, len(targets)), CacheIndex: idxOf(cacheTarget)}
	for i, t := range targets {
		snap.Records[i] = record{
			Index:           i,
			ID:              t.ID(),
			ParentIndex:     idxOf(t.Parent()),
			PrototypeID:     t.Prototype().ID(),
			WorkingDirIndex: idxOf(t.WorkingDirectory()),
			Filenames:       t.Filenames(),
			BindType:        int(t.BindType()),
			Cleanable:       t.Cleanable(),
			Built:           t.Built(),
			RequiredToExist: t.IsRequiredToExist(),
			ExplicitIndexes: indexes(t.Dependencies(graph.Explicit), index),
			ImplicitIndexes: indexes(t.Dependencies(graph.Implicit), index),
			OrderingIndexes: indexes(t.Dependencies(graph.Ordering), index),
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return err
	}

	f, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer f.Cleanup()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return err
	}
	return f.CloseAtomicallyReplace()
}

func indexes(ts []*graph.Target, index map[*graph.Target]int) []int {
	out := make([]int, len(ts))
	for i, t := range ts {
		out[i] = index[t]
	}
	return out
}

// Load reads path and rebuilds every target it describes into g, which must
// be freshly Clear()'d. Identity is preserved across cycles with a two-phase
// approach: first allocate every target bare (via Graph.AddTarget, parent by
// parent from the root down), then link dependency/working-directory edges
// by index, since a target may depend on one not yet created in a single
// top-down pass.
func Load(g *graph.Graph, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var snap snapshot
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&snap); err != nil {
		return ferrors.SnapshotCorrupt(path, err)
	}
	if snap.Magic != magic {
		return ferrors.SnapshotCorrupt(path, io.ErrUnexpectedEOF)
	}

	targets := make([]*graph.Target, len(snap.Records))

	// Phase 1: allocate in parent-before-child order. Records are written by
	// Save in graph.Targets()'s preorder, so a record's ParentIndex always
	// precedes it positionally — this single forward pass suffices.
	for _, rec := range snap.Records {
		if rec.ParentIndex < 0 {
			// The root record: g.Root() already exists on a freshly Clear()'d
			// graph, so it is reused rather than recreated as an anonymous
			// child of itself.
			targets[rec.Index] = g.Root()
			continue
		}
		parent := targets[rec.ParentIndex]
		var proto *graph.Prototype
		if rec.PrototypeID != "" {
			proto = g.AddTargetPrototype(rec.PrototypeID)
		}
		t, err := g.AddTarget(rec.ID, parent, proto)
		if err != nil {
			return err
		}
		targets[rec.Index] = t
	}

	// Phase 2: link edges now that every target exists, so a dependency
	// cycle or a forward reference resolves correctly regardless of record
	// order.
	for _, rec := range snap.Records {
		t := targets[rec.Index]
		if rec.WorkingDirIndex >= 0 {
			t.SetWorkingDirectory(targets[rec.WorkingDirIndex])
		}
		t.SetBindType(graph.BindType(rec.BindType))
		for i, fn := range rec.Filenames {
			t.SetFilename(fn, i)
		}
		t.SetCleanable(rec.Cleanable)
		t.SetBuilt(rec.Built)
		t.SetRequiredToExist(rec.RequiredToExist)
		for _, idx := range rec.ExplicitIndexes {
			t.AddDependency(targets[idx])
		}
		for _, idx := range rec.ImplicitIndexes {
			t.AddImplicitDependency(targets[idx])
		}
		for _, idx := range rec.OrderingIndexes {
			t.AddOrderingDependency(targets[idx])
		}
	}

	if snap.CacheIndex >= 0 {
		g.SetCacheTarget(targets[snap.CacheIndex])
	}

	return nil
}
