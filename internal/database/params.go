package database

// Param is one named procedure argument. Name is given without the IN_ prefix.
type Param struct {
	Name  string
	Value any
}

// Params is an ordered parameter list; order matters for positional dialects.
type Params []Param

// P builds a Param.
func P(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// StringList is a list-valued parameter. Each dialect renders it with its own
// list type (a StringListType table-valued parameter on SQL Server).
type StringList []string

// With returns a copy of ps with p appended.
func (ps Params) With(p Param) Params {
	out := make(Params, 0, len(ps)+1)
	out = append(out, ps...)
	return append(out, p)
}
