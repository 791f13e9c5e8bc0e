package minirel

// Filter passes through child tuples for which pred evaluates true.
type Filter struct {
	pred  Predicate
	child Operator
}

// NewFilter constructs a filter of child's output by pred.
func NewFilter(pred Predicate, child Operator) *Filter {
	return &Filter{pred: pred, child: child}
}

func (f *Filter) Descriptor() *TupleDesc {
	return f.child.Descriptor()
}

func (f *Filter) Open(tid TransactionID) error {
	return f.child.Open(tid)
}

func (f *Filter) Next() (*Tuple, error) {
	for {
		t, err := f.child.Next()
		if err != nil || t == nil {
			return nil, err
		}
		ok, err := f.pred.Eval(t)
		if err != nil {
			return nil, err
		}
		if ok {
			return t, nil
		}
	}
}

func (f *Filter) Rewind() error {
	return f.child.Rewind()
}

func (f *Filter) Close() error {
	return f.child.Close()
}
