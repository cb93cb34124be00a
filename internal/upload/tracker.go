package upload

import "sync"

// AssetProgress is the last reported percentage of one asset.
type AssetProgress struct {
	ID      string
	Percent float64
}

// Tracker aggregates per-asset percentages into one overall percentage.
//
// Every asset has the same weight, 1/len(ids). The overall value never decreases, even if a driver
// reports a lower byte count after a retry.
type Tracker struct {
	mu      sync.Mutex
	order   []string
	percent map[string]float64
	overall float64
}

// NewTracker creates a tracker over the given asset ids.
func NewTracker(ids ...string) *Tracker {
	t := &Tracker{percent: make(map[string]float64, len(ids))}
	for _, id := range ids {
		if _, ok := t.percent[id]; ok {
			continue
		}
		t.order = append(t.order, id)
		t.percent[id] = 0
	}
	return t
}

// Weight returns the share of the overall percentage one asset contributes.
func (t *Tracker) Weight() float64 {
	if len(t.order) == 0 {
		return 0
	}
	return 1 / float64(len(t.order))
}

// Update records pct for the asset and returns the overall percentage. Unknown ids are ignored.
func (t *Tracker) Update(id string, pct float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.percent[id]
	if !ok {
		return t.overall
	}
	pct = min(max(pct, 0), 100)
	if pct > prev {
		t.percent[id] = pct
	}

	var sum float64
	for _, v := range t.percent {
		sum += v
	}
	t.overall = max(t.overall, sum/float64(len(t.order)))
	return t.overall
}

// Complete marks the asset as fully transferred.
func (t *Tracker) Complete(id string) float64 {
	return t.Update(id, 100)
}

// Overall returns the current overall percentage.
func (t *Tracker) Overall() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overall
}

// Snapshot returns the per-asset percentages in asset order.
func (t *Tracker) Snapshot() []AssetProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]AssetProgress, len(t.order))
	for i, id := range t.order {
		out[i] = AssetProgress{ID: id, Percent: t.percent[id]}
	}
	return out
}
