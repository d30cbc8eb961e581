// Package buildfile implements forge's declarative buildfile format: a YAML
// document describing prototypes and targets that is loaded by calling
// exactly the same graph API a script binding would call (AddTargetPrototype,
// AddTarget, AddDependency, ...), standing in for a scripting-engine binding
// surface as a declarative contract instead. Decoding uses yaml.v3 and
// go-playground/validator struct tags against a single shared validator
// instance.
package buildfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"forge/internal/ferrors"
	"forge/internal/forgelog"
	"forge/internal/graph"
)

// Document is the root of a buildfile: a flat list of prototypes and targets.
// Targets reference their prototype, and each other, by id.
type Document struct {
	Version    string           `yaml:"version" validate:"required"`
	Prototypes []PrototypeDecl  `yaml:"prototypes,omitempty" validate:"omitempty,dive"`
	Targets    []TargetDecl     `yaml:"targets" validate:"required,min=1,dive"`
	Includes   []string         `yaml:"includes,omitempty"`
}

// PrototypeDecl declares a named target class. forge ships no scripting
// engine, so Create/Depend/Build hooks are fixed, built-in behaviors selected
// by Kind rather than arbitrary code — "command" runs Command via the
// executor, "phony" and "group" run nothing and just aggregate dependents.
type PrototypeDecl struct {
	ID   string `yaml:"id" validate:"required"`
	Kind string `yaml:"kind" validate:"required,oneof=command phony group"`
}

// CommandDecl describes an external command a "command"-kind target's build
// function issues via Context.Execute.
type CommandDecl struct {
	Path string            `yaml:"path" validate:"required"`
	Args []string          `yaml:"args,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// TargetDecl declares one target: its namespace id, class, backing files,
// and dependency edges.
type TargetDecl struct {
	ID               string       `yaml:"id" validate:"required"`
	Prototype        string       `yaml:"prototype,omitempty"`
	BindType         string       `yaml:"bind_type,omitempty" validate:"omitempty,oneof=phony source_file intermediate_file generated_file"`
	Filenames        []string     `yaml:"filenames,omitempty"`
	Depends          []string     `yaml:"depends,omitempty"`
	ImplicitDepends  []string     `yaml:"implicit_depends,omitempty"`
	OrderingDepends  []string     `yaml:"ordering_depends,omitempty"`
	RequiredToExist  bool         `yaml:"required_to_exist,omitempty"`
	Cleanable        bool         `yaml:"cleanable,omitempty"`
	WorkingDirectory string       `yaml:"working_directory,omitempty"`
	Command          *CommandDecl `yaml:"command,omitempty"`
}

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func sharedValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New()
	})
	return validatorInst
}

// Parse decodes and structurally validates a buildfile document from raw
// YAML bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ferrors.InvalidArgument(fmt.Sprintf("malformed buildfile: %v", err))
	}
	if err := sharedValidator().Struct(&doc); err != nil {
		return nil, ferrors.InvalidArgument(fmt.Sprintf("invalid buildfile: %v", err))
	}
	for i := range doc.Targets {
		t := doc.Targets[i]
		if t.Command != nil && t.Prototype == "" {
			return nil, ferrors.InvalidArgument(fmt.Sprintf("target %q declares a command but no prototype", t.ID))
		}
	}
	return &doc, nil
}

// ParseFile reads and parses the buildfile at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Loader loads Document values into a graph.Graph, calling the same
// AddTargetPrototype/AddTarget/AddDependency surface a script binding would.
type Loader struct {
	g    *graph.Graph
	log  *forgelog.Logger
	mu   sync.Mutex
	cmds map[*graph.Target]*CommandDecl
}

// NewLoader builds a Loader bound to g.
func NewLoader(g *graph.Graph, log *forgelog.Logger) *Loader {
	return &Loader{g: g, log: log, cmds: make(map[*graph.Target]*CommandDecl)}
}

// LoadFile parses and loads the buildfile at path relative to wd, returning
// the number of non-fatal errors encountered (missing dependency references
// are counted, not fatal) and the first fatal error, if any. The buildfile
// itself is registered as a SOURCE_FILE target: if ctx is already loading
// another buildfile (an include, or a nested Context.Buildfile call), this
// file is added as an implicit dependency of that outer buildfile's target,
// so editing an included file marks the including one outdated too. If the
// graph has a designated cache target (persist.Save/Load has run), the
// buildfile is also linked as an implicit dependency of it, so editing any
// buildfile marks a loaded snapshot stale. ctx's CurrentBuildfile is set to
// this file's target for the duration of the load, then restored.
func (l *Loader) LoadFile(ctx *graph.Context, wd *graph.Target, path string) (int, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return 0, err
	}

	bfTarget, err := l.registerBuildfileTarget(path)
	if err != nil {
		return 0, err
	}
	if parent := ctx.CurrentBuildfile(); parent != nil {
		parent.AddImplicitDependency(bfTarget)
	}
	if cache := l.g.CacheTarget(); cache != nil {
		cache.AddImplicitDependency(bfTarget)
	}

	previous := ctx.CurrentBuildfile()
	ctx.SetCurrentBuildfile(bfTarget)
	defer ctx.SetCurrentBuildfile(previous)

	return l.Load(ctx, doc, wd)
}

// registerBuildfileTarget creates or finds the SOURCE_FILE target standing
// for the buildfile at path itself, keyed by its absolute path in the
// namespace, so its mtime participates in bind-time outdated propagation
// exactly like any other source file.
func (l *Loader) registerBuildfileTarget(path string) (*graph.Target, error) {
	abs := path
	if a, err := filepath.Abs(path); err == nil {
		abs = a
	}
	t, err := l.g.AddTarget(abs, nil, nil)
	if err != nil {
		return nil, err
	}
	t.SetBindType(graph.SourceFile)
	if len(t.Filenames()) == 0 {
		t.SetFilename(abs, 0)
	}
	return t, nil
}

// Load materializes doc's prototypes and targets into the graph relative to
// wd, wiring each target's three dependency classes.
func (l *Loader) Load(ctx *graph.Context, doc *Document, wd *graph.Target) (int, error) {
	errCount := 0

	for _, pd := range doc.Prototypes {
		l.declarePrototype(pd)
	}

	created := make(map[string]*graph.Target, len(doc.Targets))
	for _, td := range doc.Targets {
		var proto *graph.Prototype
		if td.Prototype != "" {
			proto = l.g.AddTargetPrototype(td.Prototype)
		}
		t, err := l.g.AddTarget(td.ID, wd, proto)
		if err != nil {
			if l.log != nil {
				l.log.Error("failed to add target", "id", td.ID, "error", err)
			}
			return errCount, err
		}
		applyDecl(t, td)
		if td.Command != nil {
			l.recordCommand(t, td.Command)
		}
		created[td.ID] = t
	}

	for _, td := range doc.Targets {
		t := created[td.ID]
		for _, depID := range td.Depends {
			dep := l.g.FindTarget(depID, wd)
			if dep == nil {
				errCount++
				if l.log != nil {
					l.log.Warn("dependency not found", "target", td.ID, "dependency", depID)
				}
				continue
			}
			t.AddDependency(dep)
		}
		for _, depID := range td.ImplicitDepends {
			if dep := l.g.FindTarget(depID, wd); dep != nil {
				t.AddImplicitDependency(dep)
			} else {
				errCount++
			}
		}
		for _, depID := range td.OrderingDepends {
			if dep := l.g.FindTarget(depID, wd); dep != nil {
				t.AddOrderingDependency(dep)
			} else {
				errCount++
			}
		}
		if p := t.Prototype(); p != nil && p.Depend != nil {
			if err := p.Depend(ctx, t); err != nil {
				errCount++
				if l.log != nil {
					l.log.Warn("depend hook failed", "target", td.ID, "error", err)
				}
			}
		}
	}

	for _, include := range doc.Includes {
		n, err := l.LoadFile(ctx, wd, include)
		errCount += n
		if err != nil {
			return errCount, err
		}
	}

	return errCount, nil
}

func applyDecl(t *graph.Target, td TargetDecl) {
	if td.BindType != "" {
		t.SetBindType(parseBindType(td.BindType))
	}
	for i, fn := range td.Filenames {
		t.SetFilename(fn, i)
	}
	t.SetRequiredToExist(td.RequiredToExist)
	t.SetCleanable(td.Cleanable)
}

func parseBindType(s string) graph.BindType {
	switch s {
	case "source_file":
		return graph.SourceFile
	case "intermediate_file":
		return graph.IntermediateFile
	case "generated_file":
		return graph.GeneratedFile
	default:
		return graph.Phony
	}
}

// declarePrototype registers a built-in prototype kind. "command" targets
// run their CommandDecl through Context.Execute; "phony" and "group" targets
// run no build function and exist purely to aggregate dependents.
func (l *Loader) declarePrototype(pd PrototypeDecl) {
	p := l.g.AddTargetPrototype(pd.ID)
	switch pd.Kind {
	case "command":
		p.Build = l.commandBuild
	default:
		p.Build = nil
	}
}

func (l *Loader) commandBuild(ctx *graph.Context, t *graph.Target) error {
	l.mu.Lock()
	decl := l.cmds[t]
	l.mu.Unlock()
	if decl == nil {
		return nil
	}
	env := make([]string, 0, len(decl.Env))
	for k, v := range decl.Env {
		env = append(env, k+"="+v)
	}
	code, err := ctx.Execute(decl.Path, decl.Args, env, nil)
	if err != nil {
		return err
	}
	if code != 0 {
		return ferrors.CommandFailed(t.Path(), code, nil)
	}
	return nil
}

// recordCommand associates a loaded target with its CommandDecl. Keyed by
// *graph.Target rather than id since target ids are only unique among
// siblings, not across the whole namespace.
func (l *Loader) recordCommand(t *graph.Target, cmd *CommandDecl) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmds[t] = cmd
}
