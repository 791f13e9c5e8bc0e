package minirel

// SeqScan is a leaf operator that iterates every tuple in a table's
// HeapFile in page order, qualifying each output field with the given
// table alias.
type SeqScan struct {
	file  DBFile
	alias string
	desc  *TupleDesc

	tid TransactionID
	it  *heapFileIterator
}

// NewSeqScan returns a scan over file, presenting its fields under
// alias.
func NewSeqScan(file DBFile, alias string) *SeqScan {
	return &SeqScan{
		file:  file,
		alias: alias,
		desc:  file.descriptor().setTableAlias(alias),
	}
}

func (s *SeqScan) Descriptor() *TupleDesc {
	return s.desc
}

func (s *SeqScan) Open(tid TransactionID) error {
	s.tid = tid
	s.it = s.file.iterator(tid)
	return s.it.Open()
}

func (s *SeqScan) Next() (*Tuple, error) {
	if s.it == nil {
		return nil, newDbError(IllegalStateError, "SeqScan: Next called before Open")
	}
	t, err := s.it.Next()
	if err != nil || t == nil {
		return nil, err
	}
	aliased := &Tuple{Desc: *s.desc, Fields: t.Fields, Rid: t.Rid}
	return aliased, nil
}

func (s *SeqScan) Rewind() error {
	if s.it == nil {
		return newDbError(IllegalStateError, "SeqScan: Rewind called before Open")
	}
	return s.it.Rewind()
}

func (s *SeqScan) Close() error {
	if s.it == nil {
		return nil
	}
	err := s.it.Close()
	s.it = nil
	return err
}
