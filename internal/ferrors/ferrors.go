// Package ferrors defines the error taxonomy used throughout forge: one Kind
// and constructor per category, all returning a single shared error type
// that carries the offending target's namespace path where one exists so the
// CLI can prefix diagnostics consistently.
package ferrors

import "fmt"

// Kind classifies an error for callers that want to branch on taxonomy
// rather than Go type (e.g. the scheduler deciding whether a failure is
// fatal to the whole traversal or local to one target).
type Kind string

const (
	KindInvalidOption        Kind = "invalid_option"
	KindInvalidArgument      Kind = "invalid_argument"
	KindRootFileNotFound     Kind = "root_file_not_found"
	KindPrototypeConflict    Kind = "prototype_conflict"
	KindMissingRequiredSource Kind = "missing_required_source"
	KindCyclicDependency     Kind = "cyclic_dependency"
	KindCommandFailed        Kind = "command_failed"
	KindTraversalReentered   Kind = "traversal_reentered"
	KindSnapshotCorrupt      Kind = "snapshot_corrupt"
)

// Error is the common shape every forge error satisfies. The executor and
// CLI use it to recover the target path and kind without type-switching on
// every concrete struct.
type Error interface {
	error
	Kind() Kind
	TargetPath() string
	Unwrap() error
}

type baseError struct {
	kind       Kind
	targetPath string
	message    string
	err        error
}

func (e *baseError) Kind() Kind         { return e.kind }
func (e *baseError) TargetPath() string { return e.targetPath }
func (e *baseError) Unwrap() error      { return e.err }

func (e *baseError) Error() string {
	if e.targetPath == "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %v", e.message, e.err)
		}
		return e.message
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.targetPath, e.message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.targetPath, e.message)
}

func (e *baseError) Is(target error) bool {
	other, ok := target.(*baseError)
	return ok && other.kind == e.kind
}

func newErr(kind Kind, targetPath, message string, err error) *baseError {
	return &baseError{kind: kind, targetPath: targetPath, message: message, err: err}
}

// InvalidOption reports a malformed or out-of-range configuration option
// (jobs, warning_level, ...).
func InvalidOption(name, reason string) error {
	return newErr(KindInvalidOption, "", fmt.Sprintf("invalid option %q: %s", name, reason), nil)
}

// InvalidArgument reports a malformed CLI argument.
func InvalidArgument(message string) error {
	return newErr(KindInvalidArgument, "", message, nil)
}

// RootFileNotFound reports that ascending from the starting directory never
// found the root marker file.
func RootFileNotFound(marker, start string) error {
	return newErr(KindRootFileNotFound, "", fmt.Sprintf("no %q found above %q", marker, start), nil)
}

// PrototypeConflict reports that a target was created with two different,
// non-nil prototypes.
func PrototypeConflict(targetPath, first, second string) error {
	msg := fmt.Sprintf("The target '%s' has been created with prototypes '%s' and '%s'", targetPath, first, second)
	return newErr(KindPrototypeConflict, targetPath, msg, nil)
}

// MissingRequiredSource reports a source file required to exist that is
// absent from disk at bind time.
func MissingRequiredSource(targetPath, filename string) error {
	return newErr(KindMissingRequiredSource, targetPath, fmt.Sprintf("the source file %q does not exist", filename), nil)
}

// CyclicDependency is a warning-only kind: the scheduler logs it and treats
// the cyclic edge as satisfied rather than aborting.
func CyclicDependency(fromPath, toPath string) error {
	return newErr(KindCyclicDependency, fromPath, fmt.Sprintf("ignoring cyclic dependency from %q to %q", fromPath, toPath), nil)
}

// CommandFailed reports a non-zero exit code or a spawn failure from the
// executor, attributed to the target whose build function issued the command.
func CommandFailed(targetPath string, exitCode int, err error) error {
	msg := fmt.Sprintf("command exited with status %d", exitCode)
	return newErr(KindCommandFailed, targetPath, msg, err)
}

// TraversalReentered reports an attempt to start a bind/postorder pass while
// one is already in progress on this graph. Fatal: aborts immediately.
func TraversalReentered() error {
	return newErr(KindTraversalReentered, "", "a graph traversal is already in progress", nil)
}

// SnapshotCorrupt reports a binary snapshot that failed its header check or
// could not be decoded.
func SnapshotCorrupt(path string, err error) error {
	return newErr(KindSnapshotCorrupt, "", fmt.Sprintf("snapshot %q is corrupt", path), err)
}
