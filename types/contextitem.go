package types

// ContextItem is a durable, named knowledge fragment carried across
// rounds, optionally hidden from specific participants.
type ContextItem struct {
	SetName    string              `json:"set_name"`
	Text       string              `json:"text"`
	HiddenFrom map[string]struct{} `json:"hidden_from,omitempty"`
}

// NewContextItem creates a context item visible to everyone.
func NewContextItem(setName, text string) ContextItem {
	return ContextItem{SetName: setName, Text: text}
}

// HideFrom marks the item hidden from the named participants and returns
// the item for chaining.
func (c ContextItem) HideFrom(names ...string) ContextItem {
	if c.HiddenFrom == nil {
		c.HiddenFrom = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		c.HiddenFrom[n] = struct{}{}
	}
	return c
}

// VisibleTo reports whether the item may be shown to the named participant.
func (c ContextItem) VisibleTo(participantName string) bool {
	if c.HiddenFrom == nil {
		return true
	}
	_, hidden := c.HiddenFrom[participantName]
	return !hidden
}

// ContextSet is the collection of context items held by a session.
type ContextSet []ContextItem

// VisibleTo filters the set down to items the named participant may see.
func (s ContextSet) VisibleTo(participantName string) ContextSet {
	out := make(ContextSet, 0, len(s))
	for _, item := range s {
		if item.VisibleTo(participantName) {
			out = append(out, item)
		}
	}
	return out
}

// Names returns the set names in order, for summary cross-referencing.
func (s ContextSet) Names() []string {
	names := make([]string, len(s))
	for i, item := range s {
		names[i] = item.SetName
	}
	return names
}

// Clone returns a shallow copy safe to hand across a snapshot boundary.
func (s ContextSet) Clone() ContextSet {
	if s == nil {
		return nil
	}
	out := make(ContextSet, len(s))
	copy(out, s)
	return out
}
