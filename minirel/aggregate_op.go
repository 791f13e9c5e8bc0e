package minirel

// Aggregate computes a single-pass grouped or ungrouped aggregate over
// its child; groupExpr is nil for the ungrouped case. Like OrderBy,
// this is a blocking operator: Open() fully drains the child and
// finalizes every group's AggState before Next() starts handing out
// result tuples, one per group. Iteration order over groups is
// unspecified.
type Aggregate struct {
	child     Operator
	aggExpr   Expr
	aggOp     AggOp
	groupExpr Expr // nil => ungrouped
	proto     AggState

	desc    *TupleDesc
	results []*Tuple
	pos     int
}

// NewAggregate constructs an aggregate of aggOp over aggExpr, grouped
// by groupExpr (pass nil for an ungrouped aggregate).
func NewAggregate(child Operator, aggExpr Expr, aggOp AggOp, groupExpr Expr) (*Aggregate, error) {
	proto, err := newAggState(aggOp, aggExpr.GetExprType().Ftype)
	if err != nil {
		return nil, err
	}
	if err := proto.Init(aggAlias(aggOp), aggExpr); err != nil {
		return nil, err
	}

	fields := proto.GetTupleDesc().Fields
	if groupExpr != nil {
		gt := groupExpr.GetExprType()
		fields = append([]FieldType{gt}, fields...)
	}

	return &Aggregate{
		child:     child,
		aggExpr:   aggExpr,
		aggOp:     aggOp,
		groupExpr: groupExpr,
		proto:     proto,
		desc:      &TupleDesc{Fields: fields},
	}, nil
}

func aggAlias(op AggOp) string {
	switch op {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	}
	return "agg"
}

func (a *Aggregate) Descriptor() *TupleDesc {
	return a.desc
}

func (a *Aggregate) Open(tid TransactionID) error {
	if err := a.child.Open(tid); err != nil {
		return err
	}
	return a.materialize()
}

// materialize drains the child once, maintaining one AggState per
// distinct group key (or a single ungrouped state), then finalizes
// every group into a.results.
func (a *Aggregate) materialize() error {
	a.results = nil
	a.pos = 0

	if a.groupExpr == nil {
		state := a.proto.Copy()
		for {
			t, err := a.child.Next()
			if err != nil {
				return err
			}
			if t == nil {
				break
			}
			if err := state.AddTuple(t); err != nil {
				return err
			}
		}
		a.results = append(a.results, state.Finalize())
		return nil
	}

	states := make(map[any]AggState)
	order := make([]any, 0)
	groupVals := make(map[any]DBValue)

	for {
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		if t == nil {
			break
		}
		gv, err := a.groupExpr.EvalExpr(t)
		if err != nil {
			return err
		}
		key := any(gv)
		state, ok := states[key]
		if !ok {
			state = a.proto.Copy()
			states[key] = state
			groupVals[key] = gv
			order = append(order, key)
		}
		if err := state.AddTuple(t); err != nil {
			return err
		}
	}

	for _, key := range order {
		result := states[key].Finalize()
		merged := &Tuple{
			Desc:   *a.desc,
			Fields: append([]DBValue{groupVals[key]}, result.Fields...),
		}
		a.results = append(a.results, merged)
	}
	return nil
}

func (a *Aggregate) Next() (*Tuple, error) {
	if a.pos >= len(a.results) {
		return nil, nil
	}
	t := a.results[a.pos]
	a.pos++
	return t, nil
}

func (a *Aggregate) Rewind() error {
	a.pos = 0
	return nil
}

func (a *Aggregate) Close() error {
	a.results = nil
	return a.child.Close()
}
