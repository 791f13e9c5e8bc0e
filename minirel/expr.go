package minirel

// BoolOp enumerates the comparison operators a Filter or Join predicate
// can use.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpLike
)

// Expr evaluates to a DBValue given an input tuple. Filter, Join,
// Project, and the Aggregator all operate on Exprs rather than bare
// field indices so a predicate can name either a scanned column or a
// constant.
type Expr interface {
	EvalExpr(t *Tuple) (DBValue, error)
	GetExprType() FieldType
}

// FieldExpr extracts a named field (optionally table-qualified) from a
// tuple.
type FieldExpr struct {
	Field FieldType
}

func NewFieldExpr(field FieldType) *FieldExpr {
	return &FieldExpr{Field: field}
}

func (e *FieldExpr) GetExprType() FieldType {
	return e.Field
}

func (e *FieldExpr) EvalExpr(t *Tuple) (DBValue, error) {
	idx, err := findFieldInTd(e.Field, &t.Desc)
	if err != nil {
		return nil, err
	}
	return t.Fields[idx], nil
}

// ConstExpr wraps a literal value, used for the constant side of a
// Filter or Join predicate.
type ConstExpr struct {
	Val   DBValue
	Ftype DBType
}

func NewConstExpr(val DBValue, ftype DBType) *ConstExpr {
	return &ConstExpr{Val: val, Ftype: ftype}
}

func (e *ConstExpr) GetExprType() FieldType {
	return FieldType{Fname: "", Ftype: e.Ftype}
}

func (e *ConstExpr) EvalExpr(t *Tuple) (DBValue, error) {
	return e.Val, nil
}
