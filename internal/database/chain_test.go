package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWithIDs(ids ...any) *Result {
	set := ResultSet{Columns: []string{AffectedEntityColumn}}
	for _, id := range ids {
		set.Rows = append(set.Rows, Row{AffectedEntityColumn: id})
	}
	return &Result{Sets: []ResultSet{set}}
}

// fold runs the chain over steps with canned results, returning the steps as
// they would have been executed.
func fold(steps []Step, results []*Result) ([]Step, chainState) {
	state := chainState{}
	var executed []Step
	for i, step := range steps {
		step, state = state.bind(step)
		executed = append(executed, step)
		state = state.absorb(results[i])
	}
	return executed, state
}

func auditIDs(t *testing.T, step Step) StringList {
	t.Helper()
	for _, p := range step.Params {
		if p.Name == AffectedEntitiesParam {
			ids, ok := p.Value.(StringList)
			require.True(t, ok)
			return ids
		}
	}
	return nil
}

func TestChainAttachesIDsToAuditStep(t *testing.T) {
	steps := []Step{
		{Name: "spCourses_Create", Params: Params{P("name", "Databases")}},
		{Name: "spCourses_AddProfessor", Params: Params{P("userId", 4)}},
		{Name: AuditLogProcedure, Params: Params{P("userId", 4), P("action", "course_create")}},
	}
	results := []*Result{resultWithIDs(int64(10)), resultWithIDs(int64(11), int64(12)), {}}

	executed, state := fold(steps, results)

	assert.Nil(t, auditIDs(t, executed[0]))
	assert.Nil(t, auditIDs(t, executed[1]))
	assert.Equal(t, StringList{"10", "11", "12"}, auditIDs(t, executed[2]))
	assert.Empty(t, state.pending)
	assert.Len(t, state.results, 3)
}

func TestChainClearsAccumulatorAfterAudit(t *testing.T) {
	steps := []Step{
		{Name: "spDocuments_Update"},
		{Name: AuditLogProcedure},
		{Name: "spDocuments_UpdateLabels"},
		{Name: AuditLogProcedure},
	}
	results := []*Result{resultWithIDs("a"), {}, resultWithIDs("b"), {}}

	executed, _ := fold(steps, results)

	assert.Equal(t, StringList{"a"}, auditIDs(t, executed[1]))
	assert.Equal(t, StringList{"b"}, auditIDs(t, executed[3]))
}

func TestChainSkipsAuditWithoutIDs(t *testing.T) {
	steps := []Step{{Name: "spNotifications_MarkRead"}, {Name: AuditLogProcedure, Params: Params{P("action", "x")}}}
	executed, _ := fold(steps, []*Result{{}, {}})

	assert.Equal(t, Params{P("action", "x")}, executed[1].Params)
}

func TestChainDoesNotMutateCallerParams(t *testing.T) {
	params := make(Params, 1, 4)
	params[0] = P("action", "x")
	audit := Step{Name: AuditLogProcedure, Params: params}

	state := chainState{}.absorb(resultWithIDs(1))
	bound, _ := state.bind(audit)

	assert.Len(t, audit.Params, 1)
	assert.Len(t, bound.Params, 2)
}

func TestAffectedIDsIgnoresOtherColumns(t *testing.T) {
	res := &Result{Sets: []ResultSet{
		{Columns: []string{"courseId"}, Rows: []Row{{"courseId": 1}}},
		{Columns: []string{AffectedEntityColumn}, Rows: []Row{{AffectedEntityColumn: nil}, {AffectedEntityColumn: "7"}}},
	}}
	assert.Equal(t, []string{"7"}, affectedIDs(res))
}
