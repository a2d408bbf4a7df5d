package schema

import "fmt"

// ErrIndexBudgetExceeded is returned by AssertIndexBudget when the planned
// search-index count exceeds the deployment profile's budget and the caller
// asked for a hard assertion rather than the softer PlanSearchIndexes
// degrade-with-warning path.
type ErrIndexBudgetExceeded struct {
	Profile string
	Planned int
	Budget  int
}

func (e *ErrIndexBudgetExceeded) Error() string {
	return fmt.Sprintf("schema: planned %d search indexes exceeds %s budget of %d", e.Planned, e.Profile, e.Budget)
}

// AssertIndexBudget reports whether provisioning a text+vector pair for
// every collection in candidates stays within the profile's index budget.
// atlas-m0 caps at 3 total search indexes; all other profiles are
// unbounded. It never mutates state — EnsureSearchIndexes (fed by
// PlanSearchIndexes) is what actually degrades gracefully; this is the
// stricter check an operator can opt into at startup.
func AssertIndexBudget(profile string, candidates []string) error {
	budget := indexBudget(profile)
	if budget <= 0 {
		return nil
	}
	planned := len(candidates) * 2
	if planned > budget {
		return &ErrIndexBudgetExceeded{Profile: profile, Planned: planned, Budget: budget}
	}
	return nil
}
