package minirel

// Operator is the capability set every node in the execution pipeline
// implements: a TupleDesc, plus open/next/rewind/close over a single
// TransactionID. An interface with one concrete struct per operator
// kind. Every operator pulls from its child(ren) rather than pushing,
// so no operator buffers more than it needs to (OrderBy and Aggregate,
// which must materialize, are the exceptions noted on their own types).
type Operator interface {
	Descriptor() *TupleDesc
	Open(tid TransactionID) error
	Next() (*Tuple, error)
	Rewind() error
	Close() error
}

// Predicate is the (left op right) comparison Filter uses. Both sides
// are arbitrary Exprs rather than a fixed field index and constant,
// since the right-hand side is occasionally itself computed.
type Predicate struct {
	Left  Expr
	Op    BoolOp
	Right Expr
}

// Eval applies the predicate to t: evaluate both sides against t and
// compare with Op.
func (p *Predicate) Eval(t *Tuple) (bool, error) {
	lv, err := p.Left.EvalExpr(t)
	if err != nil {
		return false, err
	}
	rv, err := p.Right.EvalExpr(t)
	if err != nil {
		return false, err
	}
	return lv.EvalPred(rv, p.Op), nil
}
