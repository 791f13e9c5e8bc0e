package minirel

import "github.com/tylertreat/BoomFilters"

// StringHistogram estimates selectivity for a STRING column using a
// Count-Min Sketch rather than a bucketed histogram, since strings
// have no natural range to bucket by. TableStats uses one per string
// column to answer equality-selectivity questions.
type StringHistogram struct {
	cms *boom.CountMinSketch
}

// NewStringHistogram returns an empty StringHistogram sized for a
// 0.1% error rate at 99.9% confidence.
func NewStringHistogram() *StringHistogram {
	return &StringHistogram{cms: boom.NewCountMinSketch(0.001, 0.999)}
}

// AddValue records one occurrence of s.
func (h *StringHistogram) AddValue(s string) {
	h.cms.Add([]byte(s))
}

// EstimateSelectivity supports only OpEq/OpNeq: a Count-Min Sketch can
// answer "how many rows equal s" but has no notion of ordering, so
// range comparisons fail with IllegalAggregateError rather than
// silently returning a meaningless estimate.
func (h *StringHistogram) EstimateSelectivity(op BoolOp, s string) (float64, error) {
	total := h.cms.TotalCount()
	if total == 0 {
		return 0, nil
	}
	switch op {
	case OpEq:
		return float64(h.cms.Count([]byte(s))) / float64(total), nil
	case OpNeq:
		return 1 - float64(h.cms.Count([]byte(s)))/float64(total), nil
	}
	return 0, newDbError(IllegalAggregateError, "string histogram cannot estimate selectivity for op %v", op)
}
