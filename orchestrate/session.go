package orchestrate

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/roundtable-ai/roundtable/types"
)

// OrderingMode defines how the participant sequence for a round is built.
type OrderingMode string

const (
	// ModeDirect runs a single participant with no cycling.
	ModeDirect OrderingMode = "direct"
	// ModeSequential runs participants in roster order.
	ModeSequential OrderingMode = "sequential"
	// ModeReverse runs the roster order reversed once at session start.
	ModeReverse OrderingMode = "reverse"
	// ModeRandom reshuffles the sequence at the start of every round.
	ModeRandom OrderingMode = "random"
	// ModeDynamic rotates a single current participant whose successor is
	// chosen each step by the decision oracle.
	ModeDynamic OrderingMode = "dynamic"
)

// IsStatic reports whether the mode uses a precomputed sequence.
func (m OrderingMode) IsStatic() bool {
	switch m {
	case ModeSequential, ModeReverse, ModeRandom:
		return true
	}
	return false
}

// TerminalState is the final state of an orchestration run.
type TerminalState string

const (
	StateComplete     TerminalState = "complete"
	StateAwaitingUser TerminalState = "awaiting_user"
	StateCancelled    TerminalState = "cancelled"
	StateFailed       TerminalState = "failed"
)

// Session is the mutable run state of one orchestration invocation.
// It is owned exclusively by the Scheduler and must not be shared across
// concurrent runs.
type Session struct {
	ID             string
	Mode           OrderingMode
	Roster         types.Roster
	Transcript     types.Transcript
	Context        types.ContextSet
	InitialMessage string
	CurrentSummary string

	// RoundsRequested is the number of rounds to run; 0 means unlimited
	// (run until the compactor reports the objective resolved).
	RoundsRequested int

	// Rand drives the random ordering mode. When nil a time-seeded
	// source is used; tests inject a fixed seed.
	Rand *rand.Rand

	roundIndex int
	stepIndex  int
	sequence   []string

	turnsThisRound map[string]int
	reinsertions   map[string]int
	turnsTaken     int

	baseSequence []string
}

// NewSession creates a session for the given roster and initial request.
func NewSession(mode OrderingMode, roster types.Roster, initialMessage string) *Session {
	s := &Session{
		ID:             uuid.New().String(),
		Mode:           mode,
		Roster:         roster,
		InitialMessage: initialMessage,
		turnsThisRound: make(map[string]int),
		reinsertions:   make(map[string]int),
	}
	s.baseSequence = s.expandBase()
	return s
}

// expandBase computes the session-constant sequence skeleton. The reverse
// mode reverses the roster exactly once, here.
func (s *Session) expandBase() []string {
	names := s.Roster.Enabled().Names()
	switch s.Mode {
	case ModeDirect:
		if len(names) > 0 {
			return names[:1]
		}
		return nil
	case ModeReverse:
		out := make([]string, len(names))
		for i, n := range names {
			out[len(names)-1-i] = n
		}
		return out
	case ModeDynamic:
		// The dynamic sequence is grown step by step by the router.
		return nil
	default:
		return names
	}
}

// BeginRound resets per-round state and returns the sequence for the new
// round. Random mode reshuffles here; all other modes reuse the base.
func (s *Session) BeginRound() []string {
	s.stepIndex = 0
	s.turnsThisRound = make(map[string]int)

	switch s.Mode {
	case ModeRandom:
		seq := append([]string(nil), s.baseSequence...)
		rng := s.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
		s.sequence = seq
	case ModeDynamic:
		s.sequence = nil
	default:
		s.sequence = append([]string(nil), s.baseSequence...)
	}
	return s.sequence
}

// Sequence returns the active sequence for the current round.
func (s *Session) Sequence() []string { return s.sequence }

// SetSequence installs a respliced sequence mid-round.
func (s *Session) SetSequence(seq []string) { s.sequence = seq }

// AppendToSequence grows the dynamic sequence by one name.
func (s *Session) AppendToSequence(name string) {
	s.sequence = append(s.sequence, name)
}

// RoundIndex returns the zero-based index of the current round.
func (s *Session) RoundIndex() int { return s.roundIndex }

// StepIndex returns the zero-based index of the current cycle step.
func (s *Session) StepIndex() int { return s.stepIndex }

// AdvanceStep moves to the next cycle step.
func (s *Session) AdvanceStep() { s.stepIndex++ }

// FinishRound closes the current round.
func (s *Session) FinishRound() { s.roundIndex++ }

// FirstTurn reports whether no turn has completed yet in this session.
func (s *Session) FirstTurn() bool { return s.turnsTaken == 0 }

// RecordTurn accounts one completed turn for the named participant.
func (s *Session) RecordTurn(name string) {
	s.turnsThisRound[name]++
	s.turnsTaken++
}

// TurnsThisRound returns how many turns the named participant has taken
// in the current round.
func (s *Session) TurnsThisRound(name string) int { return s.turnsThisRound[name] }

// Reinsertions returns how many times the named participant has been
// re-inserted into the plan across the whole session.
func (s *Session) Reinsertions(name string) int { return s.reinsertions[name] }

// RecordReinsertion accounts one re-insertion of the named participant.
func (s *Session) RecordReinsertion(name string) { s.reinsertions[name]++ }

// Append adds messages to the transcript in order.
func (s *Session) Append(msgs ...types.Message) {
	s.Transcript = append(s.Transcript, msgs...)
}

// ReplaceTranscript swaps the full transcript. Only the compactor calls
// this; it is the one destructive transcript operation in the engine.
func (s *Session) ReplaceTranscript(msgs ...types.Message) {
	s.Transcript = types.Transcript(msgs)
}
