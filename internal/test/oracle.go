package test

import (
	"encoding/json"
	"sync"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

// ScriptedOracle answers moves from a queue of prepared results. Once
// the script runs out every move is accepted with no outcome.
type ScriptedOracle struct {
	mu       sync.Mutex
	script   []ScriptedResult
	Received []json.RawMessage
}

type ScriptedResult struct {
	Result domain.MoveResult
	Err    error
	Panic  any
}

func NewScriptedOracle(script ...ScriptedResult) *ScriptedOracle {
	return &ScriptedOracle{script: script}
}

func (o *ScriptedOracle) Push(script ...ScriptedResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.script = append(o.script, script...)
}

func (o *ScriptedOracle) Attempt(move json.RawMessage) (domain.MoveResult, error) {
	o.mu.Lock()
	o.Received = append(o.Received, move)
	if len(o.script) == 0 {
		o.mu.Unlock()
		return domain.Accepted(domain.OutcomeNone), nil
	}
	next := o.script[0]
	o.script = o.script[1:]
	o.mu.Unlock()

	if next.Panic != nil {
		panic(next.Panic)
	}
	return next.Result, next.Err
}

func Accept() ScriptedResult {
	return ScriptedResult{Result: domain.Accepted(domain.OutcomeNone)}
}

func AcceptWith(outcome domain.Outcome) ScriptedResult {
	return ScriptedResult{Result: domain.Accepted(outcome)}
}

func Reject(reason string) ScriptedResult {
	return ScriptedResult{Result: domain.Rejected(reason)}
}

func Fail(err error) ScriptedResult {
	return ScriptedResult{Err: err}
}

func Explode(v any) ScriptedResult {
	return ScriptedResult{Panic: v}
}

// Move builds a from/to move payload.
func Move(from, to string) json.RawMessage {
	payload, _ := json.Marshal(map[string]string{"from": from, "to": to})
	return payload
}
