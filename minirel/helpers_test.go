package minirel

import (
	"os"
	"testing"
)

// tempHeapFile opens a fresh on-disk HeapFile under t's temp dir,
// wired to bp.
func tempHeapFile(t *testing.T, bp *BufferPool, desc *TupleDesc) *HeapFile {
	t.Helper()
	path := t.TempDir() + "/table.dat"
	os.Remove(path)
	f, err := NewHeapFile(path, desc, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	return f
}

func intTd(names ...string) *TupleDesc {
	fields := make([]FieldType, len(names))
	for i, n := range names {
		fields[i] = FieldType{Fname: n, Ftype: IntType}
	}
	return &TupleDesc{Fields: fields}
}

func intTuple(desc *TupleDesc, vals ...int32) *Tuple {
	fields := make([]DBValue, len(vals))
	for i, v := range vals {
		fields[i] = IntField{Value: v}
	}
	return &Tuple{Desc: *desc, Fields: fields}
}

// scanAll drains op fully inside an open/close bracket, returning every
// tuple it produced.
func scanAll(t *testing.T, op Operator, tid TransactionID) []*Tuple {
	t.Helper()
	if err := op.Open(tid); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer op.Close()
	var out []*Tuple
	for {
		tup, err := op.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if tup == nil {
			return out
		}
		out = append(out, tup)
	}
}
