package database

import "fmt"

const (
	// AuditLogProcedure writes one audit row for a business operation.
	AuditLogProcedure = "spAuditLog_Insert"

	// AffectedEntityColumn is the column mutating procedures use to report
	// the IDs of the entities they touched.
	AffectedEntityColumn = "affectedEntityId"

	// AffectedEntitiesParam carries the accumulated IDs into the audit step.
	AffectedEntitiesParam = "affectedEntityIds"
)

// Step is one procedure invocation inside a transaction.
type Step struct {
	Name   string
	Params Params
}

// TxOptions controls CallTx.
type TxOptions struct {
	// ChainIDs attaches the affected-entity IDs reported by earlier steps to
	// the next audit-log step.
	ChainIDs bool
}

// chainState is the value folded over the steps of a chained transaction.
type chainState struct {
	results []*Result
	pending StringList
}

// bind returns the step as it must be executed. An audit-log step receives
// the pending IDs, and the accumulator is cleared.
func (s chainState) bind(step Step) (Step, chainState) {
	if step.Name != AuditLogProcedure || len(s.pending) == 0 {
		return step, s
	}
	ids := make(StringList, len(s.pending))
	copy(ids, s.pending)
	bound := Step{Name: step.Name, Params: step.Params.With(P(AffectedEntitiesParam, ids))}
	return bound, chainState{results: s.results}
}

// absorb records a step's result and accumulates the IDs it reported.
func (s chainState) absorb(res *Result) chainState {
	results := make([]*Result, 0, len(s.results)+1)
	results = append(results, s.results...)
	results = append(results, res)

	pending := make(StringList, 0, len(s.pending))
	pending = append(pending, s.pending...)
	pending = append(pending, affectedIDs(res)...)

	return chainState{results: results, pending: pending}
}

// affectedIDs collects AffectedEntityColumn values from every result set.
func affectedIDs(res *Result) []string {
	if res == nil {
		return nil
	}
	var ids []string
	for _, set := range res.Sets {
		for _, row := range set.Rows {
			v, ok := row[AffectedEntityColumn]
			if !ok || v == nil {
				continue
			}
			ids = append(ids, fmt.Sprint(v))
		}
	}
	return ids
}
