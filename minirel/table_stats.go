package minirel

import (
	"log"
	"math"
)

// CostPerPage is the assumed cost of one page read, used by
// EstimateScanCost.
const CostPerPage = 1000

// NumHistBins is the default bucket count for a table's int histograms.
const NumHistBins = 100

// TableStats ties per-column histograms to a table so a planner could
// estimate selectivity and cardinality. This engine computes and
// exposes the statistics but does no cost comparison or join ordering
// itself.
type TableStats struct {
	basePages int32
	baseTups  int
	intHists  map[string]*IntHistogram
	strHists  map[string]*StringHistogram
	desc      *TupleDesc
}

// ComputeTableStats scans file twice under a dedicated transaction:
// once to find each int column's range, then once to fill an
// IntHistogram or StringHistogram per column.
func ComputeTableStats(bp *BufferPool, file DBFile) (*TableStats, error) {
	txn := NewTransaction(bp)
	tid := txn.ID()

	mins, maxs, err := tableMinMax(bp, tid, file)
	if err != nil {
		txn.Abort()
		return nil, err
	}

	desc := file.descriptor()
	intHists := make(map[string]*IntHistogram)
	strHists := make(map[string]*StringHistogram)
	for i, f := range desc.Fields {
		switch f.Ftype {
		case IntType:
			intHists[f.Fname] = NewIntHistogram(NumHistBins, mins[i], maxs[i])
		case StringType:
			strHists[f.Fname] = NewStringHistogram()
		}
	}

	it := file.iterator(tid)
	if err := it.Open(); err != nil {
		txn.Abort()
		return nil, err
	}
	baseTups := 0
	for {
		t, err := it.Next()
		if err != nil {
			txn.Abort()
			return nil, err
		}
		if t == nil {
			break
		}
		for i, f := range desc.Fields {
			switch f.Ftype {
			case IntType:
				intHists[f.Fname].AddValue(t.Fields[i].(IntField).Value)
			case StringType:
				strHists[f.Fname].AddValue(t.Fields[i].(StringField).Value)
			}
		}
		baseTups++
	}
	it.Close()

	if err := txn.Commit(); err != nil {
		return nil, err
	}

	return &TableStats{
		basePages: file.numPages(),
		baseTups:  baseTups,
		intHists:  intHists,
		strHists:  strHists,
		desc:      desc,
	}, nil
}

// tableMinMax makes one read-only pass over file to find each int
// column's [min, max], used to size that column's IntHistogram.
func tableMinMax(bp *BufferPool, tid TransactionID, file DBFile) ([]int32, []int32, error) {
	desc := file.descriptor()
	mins := make([]int32, len(desc.Fields))
	maxs := make([]int32, len(desc.Fields))
	for i := range mins {
		mins[i] = math.MaxInt32
		maxs[i] = math.MinInt32
	}

	it := file.iterator(tid)
	if err := it.Open(); err != nil {
		return nil, nil, err
	}
	defer it.Close()
	for {
		t, err := it.Next()
		if err != nil {
			return nil, nil, err
		}
		if t == nil {
			break
		}
		for i, f := range desc.Fields {
			if f.Ftype != IntType {
				continue
			}
			v := t.Fields[i].(IntField).Value
			if v < mins[i] {
				mins[i] = v
			}
			if v > maxs[i] {
				maxs[i] = v
			}
		}
	}
	for i := range mins {
		if mins[i] > maxs[i] {
			mins[i], maxs[i] = 0, 0
		}
	}
	return mins, maxs, nil
}

// EstimateScanCost estimates the cost of a full sequential scan,
// assuming every page costs CostPerPage to read regardless of how
// full it is.
func (s *TableStats) EstimateScanCost() float64 {
	return float64(s.basePages) * CostPerPage
}

// EstimateCardinality estimates the row count surviving a predicate of
// the given selectivity.
func (s *TableStats) EstimateCardinality(selectivity float64) int {
	return int(float64(s.baseTups) * selectivity)
}

// EstimateSelectivity looks up field's histogram and estimates the
// selectivity of (field op value). Logs a warning and returns 1.0 (no
// filtering assumed) if field has no histogram.
func (s *TableStats) EstimateSelectivity(field string, op BoolOp, value DBValue) (float64, error) {
	if h, ok := s.intHists[field]; ok {
		iv, ok := value.(IntField)
		if !ok {
			return 1, newDbError(TypeMismatchError, "field %q is int, but value %v is not an IntField", field, value)
		}
		return h.EstimateSelectivity(op, iv.Value), nil
	}
	if h, ok := s.strHists[field]; ok {
		sv, ok := value.(StringField)
		if !ok {
			return 1, newDbError(TypeMismatchError, "field %q is string, but value %v is not a StringField", field, value)
		}
		return h.EstimateSelectivity(op, sv.Value)
	}
	log.Printf("WARNING: no histogram found for field %s", field)
	return 1.0, nil
}
