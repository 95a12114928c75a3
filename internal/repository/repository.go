package repository

import (
	"context"
	"errors"
	"fmt"

	"insightpaper/internal/database"
)

// audit is the closing step of every mutation made on behalf of a user.
func audit(actorID int64, action string) database.Step {
	return database.Step{
		Name: database.AuditLogProcedure,
		Params: database.Params{
			database.P("userId", actorID),
			database.P("action", action),
		},
	}
}

// mutate runs steps plus the audit step in one transaction and returns the
// result of the first step.
func mutate(ctx context.Context, db database.Caller, actorID int64, action string, steps ...database.Step) (*database.Result, error) {
	steps = append(steps, audit(actorID, action))
	results, err := db.CallTx(ctx, steps, database.TxOptions{ChainIDs: true})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &database.Result{}, nil
	}
	return results[0], nil
}

func step(name string, params ...database.Param) database.Step {
	return database.Step{Name: name, Params: params}
}

// decodeOne returns nil, nil when the procedure produced no row.
func decodeOne[T any](res *database.Result) (*T, error) {
	var v T
	if err := res.Decode(&v); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func decodeList[T any](res *database.Result) ([]T, error) {
	out := []T{}
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// callOne runs a read procedure returning at most one record.
func callOne[T any](ctx context.Context, db database.Caller, what, name string, params ...database.Param) (*T, error) {
	res, err := db.Call(ctx, name, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	v, err := decodeOne[T](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return v, nil
}

// callList runs a read procedure returning a list.
func callList[T any](ctx context.Context, db database.Caller, what, name string, params ...database.Param) ([]T, error) {
	res, err := db.Call(ctx, name, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	v, err := decodeList[T](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return v, nil
}

// nullable turns an optional id into a procedure argument.
func nullable(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
