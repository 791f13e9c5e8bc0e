package minirel

// Delete consumes every tuple its child produces, deleting each via
// the buffer pool (the table id is read off the tuple's own RecordId,
// set when it was originally scanned), then emits a single count
// tuple. Symmetric to Insert.
type Delete struct {
	bp    *BufferPool
	child Operator

	tid     TransactionID
	done    bool
	emitted bool
}

// NewDelete constructs a delete of child's tuples via bp.
func NewDelete(bp *BufferPool, child Operator) *Delete {
	return &Delete{bp: bp, child: child}
}

func (d *Delete) Descriptor() *TupleDesc {
	return &countDesc
}

func (d *Delete) Open(tid TransactionID) error {
	d.tid = tid
	d.done = false
	d.emitted = false
	return d.child.Open(tid)
}

func (d *Delete) Next() (*Tuple, error) {
	if d.emitted {
		return nil, nil
	}
	if !d.done {
		count := int32(0)
		for {
			t, err := d.child.Next()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if t.Rid == nil {
				return nil, newDbError(IllegalArgumentError, "delete: tuple has no RecordId")
			}
			if err := d.bp.DeleteTuple(d.tid, t.Rid.PageID.TableId, t); err != nil {
				return nil, wrapInsertError(err)
			}
			count++
		}
		d.done = true
		d.emitted = true
		return &Tuple{Desc: countDesc, Fields: []DBValue{IntField{Value: count}}}, nil
	}
	return nil, nil
}

func (d *Delete) Rewind() error {
	d.done = false
	d.emitted = false
	return d.child.Rewind()
}

func (d *Delete) Close() error {
	return d.child.Close()
}
