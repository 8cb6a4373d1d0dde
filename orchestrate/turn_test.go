package orchestrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-ai/roundtable/types"
)

func newTestTurnProcessor(executor TurnExecutor, control *ControlHandle) *TurnProcessor {
	return NewTurnProcessor(executor, control, time.Second, time.Millisecond, nil, nil)
}

func TestExecuteTurnFirstTurn(t *testing.T) {
	t.Parallel()

	executor := newStubExecutor()
	executor.responses["Manager"] = "plan ready"
	p := newTestTurnProcessor(executor, NewControlHandle())

	s := NewSession(ModeSequential, testRoster(), "draft a haiku")
	s.BeginRound()
	manager, _ := s.Roster.ByName("Manager")

	require.NoError(t, p.ExecuteTurn(context.Background(), manager, s))

	require.Len(t, s.Transcript, 2)
	assert.Equal(t, types.RoleUser, s.Transcript[0].Role)
	assert.Equal(t, "Manager", s.Transcript[0].AuthorName)
	assert.Equal(t, "draft a haiku", s.Transcript[0].Content)
	assert.Equal(t, types.RoleAssistant, s.Transcript[1].Role)
	assert.Equal(t, "Manager", s.Transcript[1].AuthorName)
	assert.Equal(t, "plan ready", s.Transcript[1].Content)

	// The first turn sees the (empty) full history.
	require.Len(t, executor.requests, 1)
	assert.Empty(t, executor.requests[0].History)
	assert.Equal(t, 1, s.TurnsThisRound("Manager"))
}

func TestExecuteTurnForwardsPreviousMessage(t *testing.T) {
	t.Parallel()

	executor := newStubExecutor()
	p := newTestTurnProcessor(executor, NewControlHandle())

	s := NewSession(ModeSequential, testRoster(), "draft a haiku")
	s.BeginRound()
	manager, _ := s.Roster.ByName("Manager")
	writer, _ := s.Roster.ByName("Writer")

	require.NoError(t, p.ExecuteTurn(context.Background(), manager, s))
	require.NoError(t, p.ExecuteTurn(context.Background(), writer, s))

	require.Len(t, s.Transcript, 4)
	assert.Equal(t, "From Manager: response from Manager", s.Transcript[2].Content)
	assert.Equal(t, "Writer", s.Transcript[2].AuthorName)

	// The forwarded pair is dropped from the history slice so its
	// content is not present twice.
	require.Len(t, executor.requests, 2)
	assert.Empty(t, executor.requests[1].History)
}

func TestExecuteTurnFailureIsStructured(t *testing.T) {
	t.Parallel()

	executor := newStubExecutor()
	executor.errs["Writer"] = errors.New("model unavailable")
	p := newTestTurnProcessor(executor, NewControlHandle())

	s := NewSession(ModeSequential, testRoster(), "go")
	s.BeginRound()
	writer, _ := s.Roster.ByName("Writer")

	err := p.ExecuteTurn(context.Background(), writer, s)
	require.Error(t, err)
	assert.Equal(t, types.ErrTurnExecution, types.GetErrorCode(err))
	// No partial messages on failure.
	assert.Empty(t, s.Transcript)
	assert.Equal(t, 0, s.TurnsThisRound("Writer"))
}

func TestExecuteTurnTimeout(t *testing.T) {
	t.Parallel()

	slow := TurnExecutorFunc(func(ctx context.Context, _ GenerateRequest) (GenerateResult, error) {
		select {
		case <-time.After(time.Second):
			return GenerateResult{Response: "late"}, nil
		case <-ctx.Done():
			return GenerateResult{}, ctx.Err()
		}
	})
	p := NewTurnProcessor(slow, NewControlHandle(), 10*time.Millisecond, time.Millisecond, nil, nil)

	s := NewSession(ModeSequential, testRoster(), "go")
	s.BeginRound()
	manager, _ := s.Roster.ByName("Manager")

	err := p.ExecuteTurn(context.Background(), manager, s)
	require.Error(t, err)
	assert.Equal(t, types.ErrTurnExecution, types.GetErrorCode(err))
}

func TestExecuteTurnCancelledBeforeDispatch(t *testing.T) {
	t.Parallel()

	executor := newStubExecutor()
	control := NewControlHandle()
	control.Cancel()
	p := newTestTurnProcessor(executor, control)

	s := NewSession(ModeSequential, testRoster(), "go")
	s.BeginRound()
	manager, _ := s.Roster.ByName("Manager")

	err := p.ExecuteTurn(context.Background(), manager, s)
	require.Error(t, err)
	assert.Equal(t, types.ErrCancelled, types.GetErrorCode(err))
	assert.Empty(t, executor.callOrder())
}

func TestExecuteTurnHonorsPause(t *testing.T) {
	t.Parallel()

	executor := newStubExecutor()
	control := NewControlHandle()
	control.Pause()
	p := newTestTurnProcessor(executor, control)

	s := NewSession(ModeSequential, testRoster(), "go")
	s.BeginRound()
	manager, _ := s.Roster.ByName("Manager")

	go func() {
		time.Sleep(20 * time.Millisecond)
		control.Resume()
	}()
	start := time.Now()
	require.NoError(t, p.ExecuteTurn(context.Background(), manager, s))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestExecuteTurnReplacesContext(t *testing.T) {
	t.Parallel()

	updated := types.ContextSet{types.NewContextItem("decisions", "use iambic meter")}
	executor := TurnExecutorFunc(func(_ context.Context, _ GenerateRequest) (GenerateResult, error) {
		return GenerateResult{Response: "ok", UpdatedContext: updated}, nil
	})
	p := NewTurnProcessor(executor, NewControlHandle(), time.Second, time.Millisecond, nil, nil)

	s := NewSession(ModeSequential, testRoster(), "go")
	s.BeginRound()
	manager, _ := s.Roster.ByName("Manager")

	require.NoError(t, p.ExecuteTurn(context.Background(), manager, s))
	require.Len(t, s.Context, 1)
	assert.Equal(t, "decisions", s.Context[0].SetName)
}

func TestExecuteTurnHidesContextFromParticipant(t *testing.T) {
	t.Parallel()

	executor := newStubExecutor()
	p := newTestTurnProcessor(executor, NewControlHandle())

	s := NewSession(ModeSequential, testRoster(), "go")
	s.Context = types.ContextSet{
		types.NewContextItem("open", "visible"),
		types.NewContextItem("closed", "not for the manager").HideFrom("Manager"),
	}
	s.BeginRound()
	manager, _ := s.Roster.ByName("Manager")

	require.NoError(t, p.ExecuteTurn(context.Background(), manager, s))
	require.Len(t, executor.requests, 1)
	require.Len(t, executor.requests[0].Context, 1)
	assert.Equal(t, "open", executor.requests[0].Context[0].SetName)
}
