// Package orchestrate implements the conversation orchestration engine:
// a turn scheduler that drives a roster of participants through rounds of
// a shared conversation, with operator pause/cancel control, oracle-driven
// dynamic routing, mid-sequence redirects, transcript compaction, and
// durable context extraction.
//
// The engine consumes two external collaborators through narrow
// interfaces: a TurnExecutor that produces one participant message per
// turn, and an Oracle that makes routing and resolution judgments from
// natural-language state. Both are treated as slow, fallible remote
// calls; every invocation is wrapped with a timeout and composed with the
// session's cancellation context.
//
// Exactly one turn, oracle call, or compaction runs at a time per
// session. Pause and cancel are cooperative: they are observed at step
// boundaries and inside the pause poll loop, never preemptively.
package orchestrate
