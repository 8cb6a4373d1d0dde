package types

// ParticipantRole classifies what a participant is for.
type ParticipantRole string

const (
	RoleManager      ParticipantRole = "manager"
	RoleWorker       ParticipantRole = "worker"
	RoleResearcher   ParticipantRole = "researcher"
	RoleToolOperator ParticipantRole = "tool-operator"
)

// ModelConfig carries the generation settings for a participant.
// Opaque to the engine; passed through to the turn executor.
type ModelConfig struct {
	Provider    string         `json:"provider,omitempty"`
	Model       string         `json:"model,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Participant is a named worker in an orchestration session.
// Immutable for the duration of a session except Enabled.
type Participant struct {
	Name            string          `json:"name"`
	Role            ParticipantRole `json:"role"`
	Title           string          `json:"title,omitempty"`
	RoleDescription string          `json:"role_description,omitempty"`
	Model           ModelConfig     `json:"model,omitempty"`
	Enabled         bool            `json:"enabled"`
}

// IsManager reports whether the participant holds the manager role.
func (p Participant) IsManager() bool {
	return p.Role == RoleManager
}

// Roster is the set of participants configured for a session.
type Roster []Participant

// Enabled returns only the enabled participants, preserving order.
func (r Roster) Enabled() Roster {
	out := make(Roster, 0, len(r))
	for _, p := range r {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Manager returns the first manager-role participant and true, or a zero
// participant and false when the roster has none.
func (r Roster) Manager() (Participant, bool) {
	for _, p := range r {
		if p.IsManager() && p.Enabled {
			return p, true
		}
	}
	return Participant{}, false
}

// ByName looks a participant up by exact name.
func (r Roster) ByName(name string) (Participant, bool) {
	for _, p := range r {
		if p.Name == name {
			return p, true
		}
	}
	return Participant{}, false
}

// Names returns the participant names in roster order.
func (r Roster) Names() []string {
	names := make([]string, len(r))
	for i, p := range r {
		names[i] = p.Name
	}
	return names
}
