package minirel

// Project emits a new tuple containing the indicated subexpressions of
// each child tuple, in order. With distinct set, duplicate output
// tuples (keyed on their serialized bytes) are suppressed.
type Project struct {
	exprs    []Expr
	names    []string
	distinct bool
	child    Operator

	desc     *TupleDesc
	seenKeys map[any]struct{}
}

// NewProject constructs a projection of child onto exprs, naming each
// output field per names (same length as exprs).
func NewProject(exprs []Expr, names []string, distinct bool, child Operator) (*Project, error) {
	if len(exprs) != len(names) {
		return nil, newDbError(IllegalArgumentError, "project: %d expressions but %d names", len(exprs), len(names))
	}
	fields := make([]FieldType, len(exprs))
	for i, e := range exprs {
		ft := e.GetExprType()
		ft.Fname = names[i]
		fields[i] = ft
	}
	return &Project{
		exprs:    exprs,
		names:    names,
		distinct: distinct,
		child:    child,
		desc:     &TupleDesc{Fields: fields},
	}, nil
}

func (p *Project) Descriptor() *TupleDesc {
	return p.desc
}

func (p *Project) Open(tid TransactionID) error {
	if p.distinct {
		p.seenKeys = make(map[any]struct{})
	}
	return p.child.Open(tid)
}

func (p *Project) Next() (*Tuple, error) {
	for {
		t, err := p.child.Next()
		if err != nil || t == nil {
			return nil, err
		}

		out := &Tuple{Desc: *p.desc, Fields: make([]DBValue, len(p.exprs))}
		for i, e := range p.exprs {
			v, err := e.EvalExpr(t)
			if err != nil {
				return nil, err
			}
			out.Fields[i] = v
		}

		if p.distinct {
			key := out.tupleKey()
			if _, seen := p.seenKeys[key]; seen {
				continue
			}
			p.seenKeys[key] = struct{}{}
		}
		return out, nil
	}
}

func (p *Project) Rewind() error {
	if p.distinct {
		p.seenKeys = make(map[any]struct{})
	}
	return p.child.Rewind()
}

func (p *Project) Close() error {
	return p.child.Close()
}
