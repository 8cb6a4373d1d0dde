package orchestrate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roundtable-ai/roundtable/types"
)

// ---------------------------------------------------------------------------
// Oracle stub
// ---------------------------------------------------------------------------

type stubOracle struct {
	mu sync.Mutex

	route    RoutingDecision
	routeErr error
	routeFn  func(RoutingQuery) (RoutingDecision, error)

	compact    CompactionResult
	compactErr error
	compactFn  func(CompactionQuery) (CompactionResult, error)

	extractItems []types.ContextItem
	extractErr   error

	info    InfoRequest
	infoErr error

	routeCalls   atomic.Int32
	compactCalls atomic.Int32
	extractCalls atomic.Int32
	infoCalls    atomic.Int32
}

func newStubOracle() *stubOracle {
	return &stubOracle{
		compact: CompactionResult{Summary: "progress so far"},
	}
}

func (o *stubOracle) DecideRoute(_ context.Context, q RoutingQuery) (RoutingDecision, error) {
	o.routeCalls.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.routeFn != nil {
		return o.routeFn(q)
	}
	return o.route, o.routeErr
}

func (o *stubOracle) Summarize(_ context.Context, q CompactionQuery) (CompactionResult, error) {
	o.compactCalls.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.compactFn != nil {
		return o.compactFn(q)
	}
	return o.compact, o.compactErr
}

func (o *stubOracle) ExtractContext(_ context.Context, _ ExtractionQuery) ([]types.ContextItem, error) {
	o.extractCalls.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.extractItems, o.extractErr
}

func (o *stubOracle) BuildInfoRequest(_ context.Context, _ InfoRequestQuery) (InfoRequest, error) {
	o.infoCalls.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.info, o.infoErr
}

// ---------------------------------------------------------------------------
// Turn executor stub
// ---------------------------------------------------------------------------

type stubExecutor struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	onTurn    func(req GenerateRequest)

	calls    []string
	requests []GenerateRequest
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (e *stubExecutor) Generate(_ context.Context, req GenerateRequest) (GenerateResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, req.Participant.Name)
	e.requests = append(e.requests, req)
	onTurn := e.onTurn
	err := e.errs[req.Participant.Name]
	response, ok := e.responses[req.Participant.Name]
	e.mu.Unlock()

	if onTurn != nil {
		onTurn(req)
	}
	if err != nil {
		return GenerateResult{}, err
	}
	if !ok {
		response = "response from " + req.Participant.Name
	}
	return GenerateResult{Response: response}, nil
}

func (e *stubExecutor) callOrder() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// ---------------------------------------------------------------------------
// Roster fixtures
// ---------------------------------------------------------------------------

func testRoster() types.Roster {
	return types.Roster{
		{Name: "Manager", Role: types.RoleManager, Title: "team lead", Enabled: true},
		{Name: "Writer", Role: types.RoleWorker, Title: "copywriter", Enabled: true},
	}
}

func wideRoster() types.Roster {
	return types.Roster{
		{Name: "Manager", Role: types.RoleManager, Title: "team lead", Enabled: true},
		{Name: "Writer", Role: types.RoleWorker, Title: "copywriter", Enabled: true},
		{Name: "Researcher", Role: types.RoleResearcher, Title: "analyst", Enabled: true},
		{Name: "Operator", Role: types.RoleToolOperator, Title: "tool runner", Enabled: true},
	}
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.PausePollInterval = 5 * time.Millisecond // keeps pause tests fast
	return p
}

func newTestScheduler(executor TurnExecutor, oracle Oracle) *Scheduler {
	return NewScheduler(executor, oracle, NewControlHandle(), testPolicy(), nil, nil, nil)
}
