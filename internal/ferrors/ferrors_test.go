package ferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrototypeConflictMessageMatchesOriginalWording(t *testing.T) {
	err := PrototypeConflict("/thing", "command", "phony")
	require.Equal(t, "The target '/thing' has been created with prototypes 'command' and 'phony'", err.Error())
}

func TestIsMatchesByKindNotIdentity(t *testing.T) {
	a := CommandFailed("/a", 1, nil)
	b := CommandFailed("/b", 2, nil)
	require.True(t, errors.Is(a, b), "two distinct CommandFailed errors share a Kind")

	other := SnapshotCorrupt("x", nil)
	require.False(t, errors.Is(a, other))
}

func TestUnwrapExposesUnderlyingError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := CommandFailed("/a", 1, cause)
	require.ErrorIs(t, err, cause)
}

func TestTargetPathExposedForAttributedErrors(t *testing.T) {
	err := MissingRequiredSource("/src.c", "src.c")
	var fe Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "/src.c", fe.TargetPath())
	require.Equal(t, KindMissingRequiredSource, fe.Kind())
}

func TestUntargetedErrorsOmitPathPrefix(t *testing.T) {
	err := InvalidArgument("bad flag")
	require.Equal(t, "bad flag", err.Error())
}
