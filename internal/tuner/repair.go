package tuner

import (
	"context"

	"tailor/internal/llm"
)

// The two repair loops share one shape: bounded attempts, validator feedback
// folded into the next prompt, accept/retry/fallback. runRepair is that shape,
// expressed as an explicit state machine over a unit of work.

type repairState int

const (
	stateGenerating repairState = iota
	stateValidating
	stateRepairing
	stateAccepted
	stateBestEffort
	stateFailed
)

// repairUnit is one unit of work (a single requirement, or a whole-document
// draft) driven through bounded attempts.
type repairUnit interface {
	// Generate performs one provider call, folding in the feedback from the
	// previous attempt. The unit stores its draft internally.
	Generate(ctx context.Context, feedback string, attempt int) error
	// Validate judges the stored draft. When not ok, the returned feedback is
	// handed to the next Generate call.
	Validate(attempt int) (ok bool, feedback string)
	// HasFallback reports whether the unit retained a usable best-effort draft.
	HasFallback() bool
}

type repairResult int

const (
	repairAccepted repairResult = iota
	repairBestEffort
	repairExhausted
	repairTransient
)

// runRepair drives a unit to a terminal state within maxAttempts provider
// calls. Transient provider failures consume attempts like validation
// failures; a permanent failure aborts immediately with the error.
func runRepair(ctx context.Context, maxAttempts int, unit repairUnit) (repairResult, error) {
	state := stateGenerating
	feedback := ""
	attempt := 0
	sawTransient := false

	for {
		switch state {
		case stateGenerating:
			attempt++
			if err := unit.Generate(ctx, feedback, attempt); err != nil {
				if !llm.IsTransient(err) {
					return repairExhausted, err
				}
				sawTransient = true
				if attempt >= maxAttempts {
					state = stateFailed
					break
				}
				continue
			}
			state = stateValidating

		case stateValidating:
			ok, fb := unit.Validate(attempt)
			if ok {
				state = stateAccepted
				break
			}
			feedback = fb
			if attempt >= maxAttempts {
				state = stateFailed
				break
			}
			state = stateRepairing

		case stateRepairing:
			state = stateGenerating

		case stateAccepted:
			return repairAccepted, nil

		case stateFailed:
			if unit.HasFallback() {
				state = stateBestEffort
				break
			}
			if sawTransient {
				return repairTransient, nil
			}
			return repairExhausted, nil

		case stateBestEffort:
			return repairBestEffort, nil
		}
	}
}
