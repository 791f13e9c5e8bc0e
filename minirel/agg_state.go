package minirel

// AggOp enumerates the five aggregate operators.
type AggOp int

const (
	AggCount AggOp = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// AggState accumulates one group's running aggregate in a single pass
// over its tuples. Copy is used by the Aggregate operator to seed a
// fresh per-group state the first time a new group key is seen.
type AggState interface {
	Init(alias string, expr Expr) error
	Copy() AggState
	AddTuple(t *Tuple) error
	Finalize() *Tuple
	GetTupleDesc() *TupleDesc
}

// newAggState builds the AggState for op over a field of type ftype.
// String fields only support AggCount — anything else fails with
// IllegalAggregateError instead of silently coercing.
func newAggState(op AggOp, ftype DBType) (AggState, error) {
	if ftype == StringType && op != AggCount {
		return nil, newDbError(IllegalAggregateError, "aggregate op %v is not defined for STRING fields", op)
	}
	switch op {
	case AggCount:
		return &CountAggState{}, nil
	case AggSum:
		return &SumAggState{}, nil
	case AggAvg:
		return &AvgAggState{}, nil
	case AggMin:
		return &MinAggState{}, nil
	case AggMax:
		return &MaxAggState{}, nil
	}
	return nil, newDbError(IllegalArgumentError, "unknown aggregate op %v", op)
}

// CountAggState implements COUNT: valid for any field type.
type CountAggState struct {
	alias string
	expr  Expr
	count int64
}

func (a *CountAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.count = alias, expr, 0
	return nil
}

func (a *CountAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *CountAggState) AddTuple(t *Tuple) error {
	a.count++
	return nil
}

func (a *CountAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *CountAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: int32(a.count)}}}
}

// SumAggState implements SUM: running sum kept as int64 to avoid
// 32-bit overflow mid-scan, truncated to int32 with two's-complement
// wraparound only at Finalize.
type SumAggState struct {
	alias string
	expr  Expr
	sum   int64
}

func (a *SumAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.sum = alias, expr, 0
	return nil
}

func (a *SumAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *SumAggState) AddTuple(t *Tuple) error {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return err
	}
	iv, ok := v.(IntField)
	if !ok {
		return newDbError(IllegalAggregateError, "SUM requires an int field")
	}
	a.sum += int64(iv.Value)
	return nil
}

func (a *SumAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *SumAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: int32(a.sum)}}}
}

// AvgAggState implements AVG: keeps (sum, count) and divides with
// integer division only at Finalize.
type AvgAggState struct {
	alias string
	expr  Expr
	sum   int64
	count int64
}

func (a *AvgAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.sum, a.count = alias, expr, 0, 0
	return nil
}

func (a *AvgAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *AvgAggState) AddTuple(t *Tuple) error {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return err
	}
	iv, ok := v.(IntField)
	if !ok {
		return newDbError(IllegalAggregateError, "AVG requires an int field")
	}
	a.sum += int64(iv.Value)
	a.count++
	return nil
}

func (a *AvgAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *AvgAggState) Finalize() *Tuple {
	avg := int32(0)
	if a.count > 0 {
		avg = int32(a.sum / a.count)
	}
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: avg}}}
}

// MaxAggState implements MAX, comparing with DBValue.EvalPred(OpGt).
// newAggState only builds it for int fields, and its output field is
// always typed int.
type MaxAggState struct {
	alias string
	expr  Expr
	max   DBValue
}

func (a *MaxAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.max = alias, expr, nil
	return nil
}

func (a *MaxAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *MaxAggState) AddTuple(t *Tuple) error {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return err
	}
	if a.max == nil || v.EvalPred(a.max, OpGt) {
		a.max = v
	}
	return nil
}

func (a *MaxAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *MaxAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.max}}
}

// MinAggState implements MIN, symmetric to MaxAggState.
type MinAggState struct {
	alias string
	expr  Expr
	min   DBValue
}

func (a *MinAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.min = alias, expr, nil
	return nil
}

func (a *MinAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *MinAggState) AddTuple(t *Tuple) error {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return err
	}
	if a.min == nil || v.EvalPred(a.min, OpLt) {
		a.min = v
	}
	return nil
}

func (a *MinAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *MinAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.min}}
}
