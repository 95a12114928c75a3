package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"insightpaper/internal/apperr"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Call executes one procedure outside a transaction.
func (db *DB) Call(ctx context.Context, name string, params ...Param) (*Result, error) {
	res, err := db.run(ctx, db.DB, Step{Name: name, Params: params})
	if err != nil {
		return nil, db.classify(name, err)
	}
	return res, nil
}

// CallTx executes steps in order inside one transaction. Any failure rolls
// back every step and the classified error of the failing step is returned.
func (db *DB) CallTx(ctx context.Context, steps []Step, opts TxOptions) ([]*Result, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}

	state := chainState{}
	for _, step := range steps {
		if opts.ChainIDs {
			step, state = state.bind(step)
		}

		res, err := db.run(ctx, tx, step)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("Error rolling back transaction at %s: %v", step.Name, rbErr)
			}
			return nil, db.classify(step.Name, err)
		}
		state = state.absorb(res)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return state.results, nil
}

func (db *DB) run(ctx context.Context, q querier, step Step) (*Result, error) {
	query, args, err := db.Dialect.ProcedureCall(step.Name, step.Params)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return readResult(rows)
}

// classify turns a driver error into a ValidationError when the procedure
// raised it deliberately, and into an opaque internal error otherwise.
func (db *DB) classify(name string, err error) error {
	if cause, ok := db.Dialect.ManualError(err); ok {
		return apperr.Wrap(apperr.Validation(cause), err)
	}
	return apperr.Internal(fmt.Errorf("procedure %s: %w", name, err))
}
