package minirel

// Limit passes through at most n tuples from its child, then signals
// exhaustion on every subsequent Next.
type Limit struct {
	child Operator
	n     int

	seen int
}

// NewLimit constructs a limit of child's output to n tuples.
func NewLimit(n int, child Operator) *Limit {
	return &Limit{child: child, n: n}
}

func (l *Limit) Descriptor() *TupleDesc {
	return l.child.Descriptor()
}

func (l *Limit) Open(tid TransactionID) error {
	l.seen = 0
	return l.child.Open(tid)
}

func (l *Limit) Next() (*Tuple, error) {
	if l.seen >= l.n {
		return nil, nil
	}
	t, err := l.child.Next()
	if err != nil || t == nil {
		return nil, err
	}
	l.seen++
	return t, nil
}

func (l *Limit) Rewind() error {
	l.seen = 0
	return l.child.Rewind()
}

func (l *Limit) Close() error {
	return l.child.Close()
}
