package minirel

import "testing"

func TestSeqScanAliasesFieldNames(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("v")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("t", file, "")

	tid := NewTID()
	bp.InsertTuple(tid, file.id(), intTuple(desc, 1))
	bp.TransactionComplete(tid, true)

	scan := NewSeqScan(file, "t")
	if scan.Descriptor().Fields[0].TableQualifier != "t" {
		t.Fatalf("expected field qualified by alias 't'")
	}

	tuples := scanAll(t, scan, NewTID())
	if len(tuples) != 1 {
		t.Fatalf("expected 1 tuple, got %d", len(tuples))
	}
}

func TestFilterOperator(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("v")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("t", file, "")

	tid := NewTID()
	for _, v := range []int32{1, 2, 3, 4, 5} {
		bp.InsertTuple(tid, file.id(), intTuple(desc, v))
	}
	bp.TransactionComplete(tid, true)

	scan := NewSeqScan(file, "t")
	pred := Predicate{
		Left:  NewFieldExpr(FieldType{Fname: "v", TableQualifier: "t", Ftype: IntType}),
		Op:    OpGt,
		Right: NewConstExpr(IntField{Value: 2}, IntType),
	}
	filter := NewFilter(pred, scan)
	tuples := scanAll(t, filter, NewTID())
	if len(tuples) != 3 {
		t.Fatalf("expected 3 tuples > 2, got %d", len(tuples))
	}
}

func TestProjectOperator(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("a", "b")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("t", file, "")

	tid := NewTID()
	bp.InsertTuple(tid, file.id(), intTuple(desc, 1, 2))
	bp.TransactionComplete(tid, true)

	scan := NewSeqScan(file, "t")
	proj, err := NewProject(
		[]Expr{NewFieldExpr(FieldType{Fname: "b", TableQualifier: "t", Ftype: IntType})},
		[]string{"b"},
		false,
		scan,
	)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	tuples := scanAll(t, proj, NewTID())
	if len(tuples) != 1 || tuples[0].Fields[0].(IntField).Value != 2 {
		t.Fatalf("project result = %+v", tuples)
	}
}

func TestProjectDistinct(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("a")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("t", file, "")

	tid := NewTID()
	for _, v := range []int32{1, 1, 2} {
		bp.InsertTuple(tid, file.id(), intTuple(desc, v))
	}
	bp.TransactionComplete(tid, true)

	scan := NewSeqScan(file, "t")
	proj, err := NewProject(
		[]Expr{NewFieldExpr(FieldType{Fname: "a", TableQualifier: "t", Ftype: IntType})},
		[]string{"a"},
		true,
		scan,
	)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	tuples := scanAll(t, proj, NewTID())
	if len(tuples) != 2 {
		t.Fatalf("expected 2 distinct values, got %d", len(tuples))
	}
}

func TestJoinNestedLoop(t *testing.T) {
	bp := NewBufferPool(10)
	leftDesc := intTd("id")
	rightDesc := intTd("id")
	leftFile := tempHeapFile(t, bp, leftDesc)
	rightFile, err := NewHeapFile(t.TempDir()+"/right.dat", rightDesc, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	cat := NewCatalog()
	cat.AddTable("l", leftFile, "")
	cat.AddTable("r", rightFile, "")
	bp.SetCatalog(cat)

	tid := NewTID()
	for _, v := range []int32{1, 2, 3} {
		bp.InsertTuple(tid, leftFile.id(), intTuple(leftDesc, v))
	}
	for _, v := range []int32{2, 3, 4} {
		bp.InsertTuple(tid, rightFile.id(), intTuple(rightDesc, v))
	}
	bp.TransactionComplete(tid, true)

	left := NewSeqScan(leftFile, "l")
	right := NewSeqScan(rightFile, "r")
	join := NewJoin(
		left, NewFieldExpr(FieldType{Fname: "id", TableQualifier: "l", Ftype: IntType}),
		right, NewFieldExpr(FieldType{Fname: "id", TableQualifier: "r", Ftype: IntType}),
		OpEq,
	)
	tuples := scanAll(t, join, NewTID())
	if len(tuples) != 2 {
		t.Fatalf("expected 2 matches (2,3), got %d: %+v", len(tuples), tuples)
	}
	if join.Descriptor().numFields() != 2 {
		t.Fatalf("joined descriptor should have 2 fields")
	}
}

func TestInsertAndDeleteOperators(t *testing.T) {
	bp := NewBufferPool(10)
	srcDesc := intTd("v")
	srcFile := tempHeapFile(t, bp, srcDesc)
	dstFile, err := NewHeapFile(t.TempDir()+"/dst.dat", srcDesc, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	cat := NewCatalog()
	cat.AddTable("src", srcFile, "")
	cat.AddTable("dst", dstFile, "")
	bp.SetCatalog(cat)

	setupTid := NewTID()
	for _, v := range []int32{1, 2, 3} {
		bp.InsertTuple(setupTid, srcFile.id(), intTuple(srcDesc, v))
	}
	bp.TransactionComplete(setupTid, true)

	insTid := NewTID()
	scan := NewSeqScan(srcFile, "src")
	ins := NewInsert(bp, dstFile.id(), scan)
	result := scanAll(t, ins, insTid)
	bp.TransactionComplete(insTid, true)
	if len(result) != 1 || result[0].Fields[0].(IntField).Value != 3 {
		t.Fatalf("insert count tuple = %+v", result)
	}

	delTid := NewTID()
	delScan := NewSeqScan(dstFile, "dst")
	del := NewDelete(bp, delScan)
	delResult := scanAll(t, del, delTid)
	bp.TransactionComplete(delTid, true)
	if len(delResult) != 1 || delResult[0].Fields[0].(IntField).Value != 3 {
		t.Fatalf("delete count tuple = %+v", delResult)
	}

	verifyTid := NewTID()
	it := dstFile.iterator(verifyTid)
	it.Open()
	defer it.Close()
	tup, _ := it.Next()
	if tup != nil {
		t.Fatalf("expected dst table empty after delete")
	}
}

func TestOrderByAndLimit(t *testing.T) {
	bp := NewBufferPool(10)
	desc := intTd("v")
	file := tempHeapFile(t, bp, desc)
	bp.SetCatalog(NewCatalog())
	bp.catalog.AddTable("t", file, "")

	tid := NewTID()
	for _, v := range []int32{3, 1, 2} {
		bp.InsertTuple(tid, file.id(), intTuple(desc, v))
	}
	bp.TransactionComplete(tid, true)

	scan := NewSeqScan(file, "t")
	ob, err := NewOrderBy(
		[]Expr{NewFieldExpr(FieldType{Fname: "v", TableQualifier: "t", Ftype: IntType})},
		[]bool{true},
		scan,
	)
	if err != nil {
		t.Fatalf("NewOrderBy: %v", err)
	}
	limit := NewLimit(2, ob)
	tuples := scanAll(t, limit, NewTID())
	if len(tuples) != 2 {
		t.Fatalf("expected 2 tuples after limit, got %d", len(tuples))
	}
	if tuples[0].Fields[0].(IntField).Value != 1 || tuples[1].Fields[0].(IntField).Value != 2 {
		t.Fatalf("expected ascending order [1,2], got %+v", tuples)
	}
}
