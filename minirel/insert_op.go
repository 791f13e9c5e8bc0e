package minirel

// Insert consumes every tuple its child produces, inserting each into
// tableId through the buffer pool (so dirtying, caching, and locking
// all go through the same path every other mutation does), then emits
// exactly one tuple holding the count. Subsequent Next calls return
// nil.
type Insert struct {
	bp      *BufferPool
	tableId int32
	child   Operator

	tid     TransactionID
	done    bool
	emitted bool
}

var countDesc = TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}}

// NewInsert constructs an insert of child's tuples into tableId via bp.
func NewInsert(bp *BufferPool, tableId int32, child Operator) *Insert {
	return &Insert{bp: bp, tableId: tableId, child: child}
}

func (i *Insert) Descriptor() *TupleDesc {
	return &countDesc
}

func (i *Insert) Open(tid TransactionID) error {
	i.tid = tid
	i.done = false
	i.emitted = false
	return i.child.Open(tid)
}

func (i *Insert) Next() (*Tuple, error) {
	if i.emitted {
		return nil, nil
	}
	if !i.done {
		count := int32(0)
		for {
			t, err := i.child.Next()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if err := i.bp.InsertTuple(i.tid, i.tableId, t); err != nil {
				return nil, wrapInsertError(err)
			}
			count++
		}
		i.done = true
		i.emitted = true
		return &Tuple{Desc: countDesc, Fields: []DBValue{IntField{Value: count}}}, nil
	}
	return nil, nil
}

func (i *Insert) Rewind() error {
	i.done = false
	i.emitted = false
	return i.child.Rewind()
}

func (i *Insert) Close() error {
	return i.child.Close()
}

// wrapInsertError gives mutation failures a DbError-typed context,
// leaving DbError and TransactionAborted values untouched so callers
// can still match on them.
func wrapInsertError(err error) error {
	if _, ok := err.(DbError); ok {
		return err
	}
	if IsTransactionAborted(err) {
		return err
	}
	return newDbError(IoError, "mutation failed: %v", err)
}
