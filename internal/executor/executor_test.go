package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"forge/internal/ferrors"
	"forge/internal/osproc"
)

func TestNewDefaultsCapacityToOne(t *testing.T) {
	p := New(osproc.NewFake(), 0, nil)
	require.Equal(t, 1, p.Capacity())
}

func TestRunSuccessPassesThroughExitCode(t *testing.T) {
	runner := osproc.NewFake()
	p := New(runner, 2, nil)

	code, err := p.Run(context.Background(), "/bin/ok", osproc.Command{Path: "/bin/ok"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Len(t, runner.Calls, 1)
}

func TestRunNonZeroExitWrapsCommandFailed(t *testing.T) {
	runner := osproc.NewFake()
	runner.Responses["/bin/fail"] = 7
	p := New(runner, 1, nil)

	code, err := p.Run(context.Background(), "/bin/fail", osproc.Command{Path: "/bin/fail"})
	require.Equal(t, 7, code)
	require.Error(t, err)

	var fe ferrors.Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, ferrors.KindCommandFailed, fe.Kind())
	require.Equal(t, "/bin/fail", fe.TargetPath())
}

func TestRunBoundsConcurrencyToCapacity(t *testing.T) {
	runner := osproc.NewFake()
	p := New(runner, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.sem.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer p.sem.Release(1)

	_, err = p.Run(ctx, "/bin/blocked", osproc.Command{Path: "/bin/blocked"})
	require.Error(t, err, "a cancelled context should fail to acquire an already-held slot")
}
