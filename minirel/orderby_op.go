package minirel

import "sort"

// OrderBy is a blocking sort over its child, supporting multiple sort
// keys each with its own ascending/descending direction. Open drains
// the child and sorts everything up front; Next then walks the sorted
// slice.
type OrderBy struct {
	exprs     []Expr
	ascending []bool
	child     Operator

	tuples []*Tuple
	pos    int
}

// NewOrderBy constructs a sort of child's output by exprs, with
// ascending[i] controlling the direction of exprs[i].
func NewOrderBy(exprs []Expr, ascending []bool, child Operator) (*OrderBy, error) {
	if len(exprs) != len(ascending) {
		return nil, newDbError(IllegalArgumentError, "order by: %d exprs but %d direction flags", len(exprs), len(ascending))
	}
	return &OrderBy{exprs: exprs, ascending: ascending, child: child}, nil
}

func (o *OrderBy) Descriptor() *TupleDesc {
	return o.child.Descriptor()
}

func (o *OrderBy) Open(tid TransactionID) error {
	if err := o.child.Open(tid); err != nil {
		return err
	}
	return o.materialize()
}

func (o *OrderBy) materialize() error {
	o.tuples = nil
	o.pos = 0
	for {
		t, err := o.child.Next()
		if err != nil {
			return err
		}
		if t == nil {
			break
		}
		o.tuples = append(o.tuples, t)
	}
	sort.Sort(orderedTuples{exprs: o.exprs, ascending: o.ascending, tuples: o.tuples})
	return nil
}

func (o *OrderBy) Next() (*Tuple, error) {
	if o.pos >= len(o.tuples) {
		return nil, nil
	}
	t := o.tuples[o.pos]
	o.pos++
	return t, nil
}

func (o *OrderBy) Rewind() error {
	o.pos = 0
	return nil
}

func (o *OrderBy) Close() error {
	o.tuples = nil
	return o.child.Close()
}

type orderedTuples struct {
	exprs     []Expr
	ascending []bool
	tuples    []*Tuple
}

func (s orderedTuples) Len() int      { return len(s.tuples) }
func (s orderedTuples) Swap(i, j int) { s.tuples[i], s.tuples[j] = s.tuples[j], s.tuples[i] }

func (s orderedTuples) Less(i, j int) bool {
	a, b := s.tuples[i], s.tuples[j]
	for k, expr := range s.exprs {
		va, err := expr.EvalExpr(a)
		if err != nil {
			return false
		}
		vb, err := expr.EvalExpr(b)
		if err != nil {
			return false
		}
		if va.EvalPred(vb, OpEq) {
			continue
		}
		if s.ascending[k] {
			return va.EvalPred(vb, OpLt)
		}
		return va.EvalPred(vb, OpGt)
	}
	return false
}
