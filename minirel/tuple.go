package minirel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Tuple is a fixed array of field values matching a TupleDesc, plus an
// optional RecordId set once the tuple has been placed on a page.
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordId
}

// writeTo serializes t's fields in TupleDesc order: INT32 as 4-byte
// big-endian two's complement, STRING as a 4-byte big-endian length
// followed by exactly StringMaxLen content bytes (zero-padded). The
// byte layout must stay stable — existing .dat files depend on it.
func (t *Tuple) writeTo(buf *bytes.Buffer) error {
	for _, field := range t.Fields {
		switch v := field.(type) {
		case IntField:
			if err := binary.Write(buf, binary.BigEndian, v.Value); err != nil {
				return err
			}
		case StringField:
			if err := writeStringField(buf, v); err != nil {
				return err
			}
		default:
			return newDbError(TypeMismatchError, "unsupported field type %T", field)
		}
	}
	return nil
}

func writeStringField(buf *bytes.Buffer, f StringField) error {
	content := []byte(f.Value)
	if len(content) > StringMaxLen {
		content = content[:StringMaxLen]
	}
	if err := binary.Write(buf, binary.BigEndian, int32(len(content))); err != nil {
		return err
	}
	padded := make([]byte, StringMaxLen)
	copy(padded, content)
	_, err := buf.Write(padded)
	return err
}

func readIntField(buf *bytes.Buffer) (IntField, error) {
	var v int32
	if err := binary.Read(buf, binary.BigEndian, &v); err != nil {
		return IntField{}, err
	}
	return IntField{Value: v}, nil
}

func readStringField(buf *bytes.Buffer) (StringField, error) {
	var length int32
	if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
		return StringField{}, err
	}
	raw := make([]byte, StringMaxLen)
	if _, err := buf.Read(raw); err != nil {
		return StringField{}, err
	}
	if length < 0 || int(length) > StringMaxLen {
		return StringField{}, newDbError(CorruptPage, "invalid string length %d", length)
	}
	return StringField{Value: string(raw[:length])}, nil
}

// readTupleFrom reads one tuple, shaped like desc, from buf.
func readTupleFrom(buf *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	fields := make([]DBValue, 0, len(desc.Fields))
	for _, ft := range desc.Fields {
		switch ft.Ftype {
		case IntType:
			f, err := readIntField(buf)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		case StringType:
			f, err := readStringField(buf)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		default:
			return nil, newDbError(TypeMismatchError, "unknown field type in tuple desc")
		}
	}
	return &Tuple{Desc: *desc, Fields: fields}, nil
}

// setField replaces the i'th field value. Fails with
// IllegalArgumentError on an out-of-range index or TypeMismatchError if
// f's type doesn't match the slot's declared type.
func (t *Tuple) setField(i int, f DBValue) error {
	if i < 0 || i >= len(t.Fields) {
		return newDbError(IllegalArgumentError, "setField: index %d out of range for %d fields", i, len(t.Fields))
	}
	if f.fieldType() != t.Desc.Fields[i].Ftype {
		return newDbError(TypeMismatchError, "setField: field %d is %v, got %v", i, t.Desc.Fields[i].Ftype, f.fieldType())
	}
	t.Fields[i] = f
	return nil
}

// equals compares tuple descriptors (by type only) and field values.
func (t *Tuple) equals(other *Tuple) bool {
	if t == nil || other == nil {
		return t == other
	}
	if !t.Desc.equals(&other.Desc) || len(t.Fields) != len(other.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// joinTuples concatenates t1's fields with t2's, producing a tuple whose
// TupleDesc is t1.Desc.merge(t2.Desc).
func joinTuples(t1, t2 *Tuple) *Tuple {
	if t1 == nil {
		return t2
	}
	if t2 == nil {
		return t1
	}
	desc := t1.Desc.merge(&t2.Desc)
	fields := make([]DBValue, 0, len(t1.Fields)+len(t2.Fields))
	fields = append(fields, t1.Fields...)
	fields = append(fields, t2.Fields...)
	return &Tuple{Desc: *desc, Fields: fields}
}

// project returns a new tuple containing just the named fields, in
// order, preferring a table-qualified match over an unqualified one.
func (t *Tuple) project(fields []FieldType) (*Tuple, error) {
	out := &Tuple{Desc: TupleDesc{}, Fields: make([]DBValue, 0, len(fields))}
	for _, want := range fields {
		idx, err := findFieldInTd(FieldType{Fname: want.Fname, TableQualifier: want.TableQualifier, Ftype: UnknownType}, &t.Desc)
		if err != nil {
			idx, err = findFieldInTd(FieldType{Fname: want.Fname, Ftype: UnknownType}, &t.Desc)
			if err != nil {
				return nil, err
			}
		}
		out.Fields = append(out.Fields, t.Fields[idx])
		out.Desc.Fields = append(out.Desc.Fields, t.Desc.Fields[idx])
	}
	return out, nil
}

// orderByState is the result of comparing two tuples on an expression.
type orderByState int

const (
	OrderedLessThan orderByState = iota
	OrderedEqual
	OrderedGreaterThan
)

func compareValues(a, b DBValue) (orderByState, error) {
	switch av := a.(type) {
	case IntField:
		bv, ok := b.(IntField)
		if !ok {
			return OrderedEqual, newDbError(TypeMismatchError, "comparing %T to %T", a, b)
		}
		switch {
		case av.Value < bv.Value:
			return OrderedLessThan, nil
		case av.Value > bv.Value:
			return OrderedGreaterThan, nil
		default:
			return OrderedEqual, nil
		}
	case StringField:
		bv, ok := b.(StringField)
		if !ok {
			return OrderedEqual, newDbError(TypeMismatchError, "comparing %T to %T", a, b)
		}
		switch {
		case av.Value < bv.Value:
			return OrderedLessThan, nil
		case av.Value > bv.Value:
			return OrderedGreaterThan, nil
		default:
			return OrderedEqual, nil
		}
	}
	return OrderedEqual, newDbError(TypeMismatchError, "unsupported value type %T", a)
}

// compareField evaluates expr on t and t2 and orders the results.
func (t *Tuple) compareField(t2 *Tuple, expr Expr) (orderByState, error) {
	v1, err := expr.EvalExpr(t)
	if err != nil {
		return OrderedEqual, err
	}
	v2, err := expr.EvalExpr(t2)
	if err != nil {
		return OrderedEqual, err
	}
	return compareValues(v1, v2)
}

// tupleKey computes a comparable key for use in maps (e.g. distinct
// projection), by serializing the tuple's field values.
func (t *Tuple) tupleKey() any {
	var buf bytes.Buffer
	t.writeTo(&buf)
	return buf.String()
}

const winWidth = 120

func fmtCol(v string, ncols int) string {
	colWid := winWidth / ncols
	nextLen := len(v) + 3
	remLen := colWid - nextLen
	if remLen > 0 {
		spacesRight := remLen / 2
		spacesLeft := remLen - spacesRight
		return strings.Repeat(" ", spacesLeft) + v + strings.Repeat(" ", spacesRight) + " |"
	}
	if colWid-4 < 0 || colWid-4 > len(v) {
		return " " + v + " |"
	}
	return " " + v[0:colWid-4] + " |"
}

// HeaderString renders a table header for d, tabular if aligned, CSV
// otherwise.
func (d *TupleDesc) HeaderString(aligned bool) string {
	out := ""
	for i, f := range d.Fields {
		name := f.Fname
		if f.TableQualifier != "" {
			name = f.TableQualifier + "." + f.Fname
		}
		if aligned {
			out = fmt.Sprintf("%s %s", out, fmtCol(name, len(d.Fields)))
		} else {
			sep := ","
			if i == 0 {
				sep = ""
			}
			out = fmt.Sprintf("%s%s%s", out, sep, name)
		}
	}
	return out
}

// PrettyPrintString renders t's field values, tabular if aligned, CSV
// otherwise.
func (t *Tuple) PrettyPrintString(aligned bool) string {
	out := ""
	for i, f := range t.Fields {
		str := ""
		switch v := f.(type) {
		case IntField:
			str = strconv.FormatInt(int64(v.Value), 10)
		case StringField:
			str = v.Value
		}
		if aligned {
			out = fmt.Sprintf("%s %s", out, fmtCol(str, len(t.Fields)))
		} else {
			sep := ","
			if i == 0 {
				sep = ""
			}
			out = fmt.Sprintf("%s%s%s", out, sep, str)
		}
	}
	return out
}
