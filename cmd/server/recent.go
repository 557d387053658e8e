package main

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kau-z/heart-disease/internal/features"
	"github.com/kau-z/heart-disease/internal/predict"
)

// prediction is a scored record kept so the what-if sliders and the chart
// can refer back to it without re-running or re-logging it.
type prediction struct {
	ID     string
	Record features.Record
	Result predict.Result
	Top    []predict.Attribution
	Tips   []string
}

// recentPredictions holds the last few predictions in memory, oldest evicted
// first. Nothing here survives a restart.
type recentPredictions struct {
	mu    sync.Mutex
	limit int
	order []string
	byID  map[string]*prediction
}

func newRecentPredictions(limit int) *recentPredictions {
	return &recentPredictions{limit: limit, byID: make(map[string]*prediction, limit)}
}

func (r *recentPredictions) add(p *prediction) string {
	p.ID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.order) >= r.limit {
		delete(r.byID, r.order[0])
		r.order = r.order[1:]
	}
	r.order = append(r.order, p.ID)
	r.byID[p.ID] = p
	return p.ID
}

func (r *recentPredictions) get(id string) (*prediction, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	return p, ok
}
