package minirel

import (
	"bytes"
	"testing"

	"github.com/d4l3k/messagediff"
)

func TestIntFieldWireFormatBigEndian(t *testing.T) {
	var buf bytes.Buffer
	tup := &Tuple{Desc: *intTd("a"), Fields: []DBValue{IntField{Value: 1}}}
	if err := tup.writeTo(&buf); err != nil {
		t.Fatalf("writeTo: %v", err)
	}
	want := []byte{0, 0, 0, 1} // big-endian two's complement
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestStringFieldWireFormat(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "s", Ftype: StringType}}}
	tup := &Tuple{Desc: *desc, Fields: []DBValue{StringField{Value: "hi"}}}
	var buf bytes.Buffer
	if err := tup.writeTo(&buf); err != nil {
		t.Fatalf("writeTo: %v", err)
	}
	if buf.Len() != 4+StringMaxLen {
		t.Fatalf("string field should serialize to 4+StringMaxLen bytes, got %d", buf.Len())
	}
	lengthPrefix := buf.Bytes()[:4]
	want := []byte{0, 0, 0, 2} // big-endian length of "hi"
	if !bytes.Equal(lengthPrefix, want) {
		t.Fatalf("length prefix = %v, want %v", lengthPrefix, want)
	}

	back, err := readTupleFrom(bytes.NewBuffer(buf.Bytes()), desc)
	if err != nil {
		t.Fatalf("readTupleFrom: %v", err)
	}
	if back.Fields[0].(StringField).Value != "hi" {
		t.Fatalf("round trip: got %q", back.Fields[0].(StringField).Value)
	}
}

func TestMultiFieldTupleRoundTrip(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{
		{Fname: "a", Ftype: IntType},
		{Fname: "b", Ftype: StringType},
	}}
	want := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 42}, StringField{Value: "hello"}}}

	var buf bytes.Buffer
	if err := want.writeTo(&buf); err != nil {
		t.Fatalf("writeTo: %v", err)
	}
	got, err := readTupleFrom(&buf, desc)
	if err != nil {
		t.Fatalf("readTupleFrom: %v", err)
	}

	if diff, equal := messagediff.PrettyDiff(want.Fields, got.Fields); !equal {
		t.Fatalf("round-tripped fields differ:\n%s", diff)
	}
}

func TestSetField(t *testing.T) {
	tup := intTuple(intTd("a", "b"), 1, 2)
	if err := tup.setField(1, IntField{Value: 9}); err != nil {
		t.Fatalf("setField: %v", err)
	}
	if tup.Fields[1].(IntField).Value != 9 {
		t.Fatalf("setField did not replace the value: %+v", tup.Fields)
	}
	if err := tup.setField(2, IntField{Value: 0}); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
	if err := tup.setField(0, StringField{Value: "x"}); err == nil {
		t.Fatalf("expected error for mismatched field type")
	}
}

func TestJoinTuples(t *testing.T) {
	t1 := intTuple(intTd("a"), 1)
	t2 := intTuple(intTd("b"), 2)
	joined := joinTuples(t1, t2)
	if joined.Desc.numFields() != 2 {
		t.Fatalf("joined tuple should have 2 fields")
	}
	if joined.Fields[0].(IntField).Value != 1 || joined.Fields[1].(IntField).Value != 2 {
		t.Fatalf("joined tuple fields out of order: %+v", joined.Fields)
	}
}

func TestTupleProject(t *testing.T) {
	desc := intTd("a", "b", "c")
	tup := intTuple(desc, 1, 2, 3)
	out, err := tup.project([]FieldType{{Fname: "c"}, {Fname: "a"}})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if out.Fields[0].(IntField).Value != 3 || out.Fields[1].(IntField).Value != 1 {
		t.Fatalf("project returned wrong fields: %+v", out.Fields)
	}
}
