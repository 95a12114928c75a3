package repository

import (
	"context"

	"insightpaper/internal/database"
)

type recordedCall struct {
	name   string
	params database.Params
}

// fakeCaller returns canned results by procedure name and records every
// call, including each step of a transaction.
type fakeCaller struct {
	results map[string]*database.Result
	errs    map[string]error
	calls   []recordedCall
	txs     [][]database.Step
	txOpts  []database.TxOptions
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{results: map[string]*database.Result{}, errs: map[string]error{}}
}

func (f *fakeCaller) Call(_ context.Context, name string, params ...database.Param) (*database.Result, error) {
	f.calls = append(f.calls, recordedCall{name: name, params: params})
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	if res, ok := f.results[name]; ok {
		return res, nil
	}
	return &database.Result{}, nil
}

func (f *fakeCaller) CallTx(_ context.Context, steps []database.Step, opts database.TxOptions) ([]*database.Result, error) {
	f.txs = append(f.txs, steps)
	f.txOpts = append(f.txOpts, opts)
	var out []*database.Result
	for _, s := range steps {
		if err := f.errs[s.Name]; err != nil {
			return nil, err
		}
		res, ok := f.results[s.Name]
		if !ok {
			res = &database.Result{}
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeCaller) Ping(context.Context) error { return nil }

func (f *fakeCaller) lastTx() []database.Step {
	if len(f.txs) == 0 {
		return nil
	}
	return f.txs[len(f.txs)-1]
}

// jsonResult mimics FOR JSON output.
func jsonResult(body string) *database.Result {
	col := "JSON_F52E2B61-18A1-11d1-B105-00C04F49916B"
	return &database.Result{Sets: []database.ResultSet{{
		Columns: []string{col},
		Rows:    []database.Row{{col: body}},
	}}}
}

func param(params database.Params, name string) any {
	for _, p := range params {
		if p.Name == name {
			return p.Value
		}
	}
	return nil
}
