package minirel

import (
	"strings"
	"sync/atomic"
)

// PageSize is the fixed byte size of every on-disk page. Overridable
// only for tests.
var PageSize = 4096

// StringMaxLen is the maximum number of content bytes a STRING field
// may hold; the on-disk width of a STRING field is 4 (length prefix) +
// StringMaxLen.
var StringMaxLen = 128

// DBType enumerates the two column types this engine supports.
type DBType int

const (
	IntType DBType = iota
	StringType
	// UnknownType is used internally during field lookup when the
	// caller doesn't know (or care about) a field's declared type —
	// see findFieldInTd.
	UnknownType
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// fieldWidth returns the fixed on-disk byte width of a field of type t.
func fieldWidth(t DBType) int {
	switch t {
	case IntType:
		return 4
	case StringType:
		return 4 + StringMaxLen
	}
	return 0
}

// FieldType names a column: its name, the table alias it was scanned
// under (set by SeqScan, consulted by join/project field resolution),
// and its declared type.
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
}

// TupleDesc is the "type" of a tuple: an ordered list of FieldTypes.
// Two TupleDescs are equal iff their type sequences match; names are
// ignored.
type TupleDesc struct {
	Fields []FieldType
}

// bytesPerTuple is the sum of the field widths described by td.
func (td *TupleDesc) bytesPerTuple() int {
	n := 0
	for _, f := range td.Fields {
		n += fieldWidth(f.Ftype)
	}
	return n
}

func (td *TupleDesc) numFields() int {
	return len(td.Fields)
}

// equals compares only the type sequence; field names don't matter.
func (td *TupleDesc) equals(other *TupleDesc) bool {
	if len(td.Fields) != len(other.Fields) {
		return false
	}
	for i := range td.Fields {
		if td.Fields[i].Ftype != other.Fields[i].Ftype {
			return false
		}
	}
	return true
}

// copy returns a deep copy of td's field slice (assigning a slice in Go
// shares backing storage, so callers that mutate need their own copy).
func (td *TupleDesc) copy() *TupleDesc {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	return &TupleDesc{Fields: fields}
}

// setTableAlias assigns every field's TableQualifier to alias, the way
// SeqScan presents a scanned table's columns under its alias.
func (td *TupleDesc) setTableAlias(alias string) *TupleDesc {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	for i := range fields {
		fields[i].TableQualifier = alias
	}
	return &TupleDesc{Fields: fields}
}

// merge concatenates td's fields with other's.
func (td *TupleDesc) merge(other *TupleDesc) *TupleDesc {
	fields := make([]FieldType, 0, len(td.Fields)+len(other.Fields))
	fields = append(fields, td.Fields...)
	fields = append(fields, other.Fields...)
	return &TupleDesc{Fields: fields}
}

// findFieldInTd finds the best match for field within desc: an exact
// name+type match, preferring one whose TableQualifier also matches.
// An unqualified lookup that matches more than one column is an error.
func findFieldInTd(field FieldType, desc *TupleDesc) (int, error) {
	best := -1
	for i, f := range desc.Fields {
		if f.Fname != field.Fname {
			continue
		}
		if f.Ftype != field.Ftype && field.Ftype != UnknownType {
			continue
		}
		if field.TableQualifier == "" && best != -1 {
			return -1, newDbError(AmbiguousNameError, "field name %s is ambiguous", f.Fname)
		}
		if f.TableQualifier == field.TableQualifier || best == -1 {
			best = i
		}
	}
	if best != -1 {
		return best, nil
	}
	return -1, newDbError(IncompatibleTypesError, "field %s.%s not found", field.TableQualifier, field.Fname)
}

// PageId identifies a page within a table: the owning table's id and a
// zero-based page number. Value-equal, usable directly as a map key,
// and stable across restarts.
type PageId struct {
	TableId    int32
	PageNumber int32
}

// RecordId identifies a tuple's slot on a specific page.
type RecordId struct {
	PageID     PageId
	TupleIndex int32
}

// TransactionID is a process-wide monotonically increasing identifier.
type TransactionID int64

var nextTid int64

// NewTID allocates a fresh, never-reused TransactionID.
func NewTID() TransactionID {
	return TransactionID(atomic.AddInt64(&nextTid, 1))
}

// DBValue is a tagged field value: IntField or StringField. EvalPred
// performs one of the comparisons <, <=, =, >=, >, <>, or (string-only)
// LIKE with substring semantics.
type DBValue interface {
	EvalPred(other DBValue, op BoolOp) bool
	fieldType() DBType
}

// IntField is a 4-byte two's-complement integer field value.
type IntField struct {
	Value int32
}

func (f IntField) fieldType() DBType { return IntType }

func (f IntField) EvalPred(other DBValue, op BoolOp) bool {
	o, ok := other.(IntField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == o.Value
	case OpNeq:
		return f.Value != o.Value
	case OpLt:
		return f.Value < o.Value
	case OpLte:
		return f.Value <= o.Value
	case OpGt:
		return f.Value > o.Value
	case OpGte:
		return f.Value >= o.Value
	}
	return false
}

// StringField is a variable-length (up to StringMaxLen) string field
// value.
type StringField struct {
	Value string
}

func (f StringField) fieldType() DBType { return StringType }

func (f StringField) EvalPred(other DBValue, op BoolOp) bool {
	o, ok := other.(StringField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == o.Value
	case OpNeq:
		return f.Value != o.Value
	case OpLt:
		return f.Value < o.Value
	case OpLte:
		return f.Value <= o.Value
	case OpGt:
		return f.Value > o.Value
	case OpGte:
		return f.Value >= o.Value
	case OpLike:
		return stringLike(f.Value, o.Value)
	}
	return false
}

// stringLike implements LIKE for STRING predicates: true iff pattern
// occurs as a substring of s.
func stringLike(s, pattern string) bool {
	return strings.Contains(s, pattern)
}
