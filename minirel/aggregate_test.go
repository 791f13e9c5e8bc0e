package minirel

import "testing"

// COUNT/SUM/MAX/MIN over {3,1,4,1,5}.
func TestUngroupedAggregates(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("v")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("t", file, "")

	tid := NewTID()
	for _, v := range []int32{3, 1, 4, 1, 5} {
		bp.InsertTuple(tid, file.id(), intTuple(desc, v))
	}
	bp.TransactionComplete(tid, true)

	vExpr := func() Expr { return NewFieldExpr(FieldType{Fname: "v", TableQualifier: "t", Ftype: IntType}) }

	cases := []struct {
		op   AggOp
		want int32
	}{
		{AggCount, 5},
		{AggSum, 14},
		{AggMax, 5},
		{AggMin, 1},
	}
	for _, c := range cases {
		scan := NewSeqScan(file, "t")
		agg, err := NewAggregate(scan, vExpr(), c.op, nil)
		if err != nil {
			t.Fatalf("NewAggregate(%v): %v", c.op, err)
		}
		tuples := scanAll(t, agg, NewTID())
		if len(tuples) != 1 {
			t.Fatalf("op %v: expected 1 result tuple, got %d", c.op, len(tuples))
		}
		got := tuples[0].Fields[0].(IntField).Value
		if got != c.want {
			t.Errorf("op %v = %d, want %d", c.op, got, c.want)
		}
	}
}

// SUM(v) GROUP BY k over (1,10),(1,20),(2,30) -> {(1,30),(2,30)}.
func TestGroupedAggregate(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("k", "v")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("s", file, "")

	tid := NewTID()
	rows := [][2]int32{{1, 10}, {1, 20}, {2, 30}}
	for _, r := range rows {
		bp.InsertTuple(tid, file.id(), intTuple(desc, r[0], r[1]))
	}
	bp.TransactionComplete(tid, true)

	scan := NewSeqScan(file, "s")
	agg, err := NewAggregate(
		scan,
		NewFieldExpr(FieldType{Fname: "v", TableQualifier: "s", Ftype: IntType}),
		AggSum,
		NewFieldExpr(FieldType{Fname: "k", TableQualifier: "s", Ftype: IntType}),
	)
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	tuples := scanAll(t, agg, NewTID())
	if len(tuples) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(tuples))
	}

	byGroup := map[int32]int32{}
	for _, tup := range tuples {
		k := tup.Fields[0].(IntField).Value
		v := tup.Fields[1].(IntField).Value
		byGroup[k] = v
	}
	if byGroup[1] != 30 || byGroup[2] != 30 {
		t.Fatalf("grouped sums = %+v, want {1:30, 2:30}", byGroup)
	}
}

func TestStringAggregateRejectsNonCount(t *testing.T) {
	_, err := newAggState(AggSum, StringType)
	dbErr, ok := err.(DbError)
	if !ok || dbErr.Code != IllegalAggregateError {
		t.Fatalf("expected IllegalAggregateError for SUM on STRING, got %v", err)
	}
	_, err = newAggState(AggCount, StringType)
	if err != nil {
		t.Fatalf("COUNT on STRING should be legal: %v", err)
	}
}

func TestAvgIntegerDivision(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("v")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("t", file, "")

	tid := NewTID()
	for _, v := range []int32{1, 2} { // avg = 1 (integer division)
		bp.InsertTuple(tid, file.id(), intTuple(desc, v))
	}
	bp.TransactionComplete(tid, true)

	scan := NewSeqScan(file, "t")
	agg, err := NewAggregate(scan, NewFieldExpr(FieldType{Fname: "v", TableQualifier: "t", Ftype: IntType}), AggAvg, nil)
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	tuples := scanAll(t, agg, NewTID())
	if tuples[0].Fields[0].(IntField).Value != 1 {
		t.Fatalf("expected integer-division average 1, got %d", tuples[0].Fields[0].(IntField).Value)
	}
}
