package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/mohammad-safakhou/marketintel/models"
)

type entry struct {
	report  models.Report
	savedAt time.Time
}

// ReportRepository is a process-local report store. Entries expire after ttl
// and, once maxReports is reached, saving evicts the oldest entry.
type ReportRepository struct {
	mu         sync.Mutex
	reports    map[string]entry
	order      []string
	ttl        time.Duration
	maxReports int
	now        func() time.Time
}

// NewReportRepository creates an empty store. Zero ttl or maxReports disables that bound.
func NewReportRepository(ttl time.Duration, maxReports int) *ReportRepository {
	return &ReportRepository{
		reports:    make(map[string]entry),
		ttl:        ttl,
		maxReports: maxReports,
		now:        time.Now,
	}
}

func (r *ReportRepository) SaveReport(_ context.Context, id string, report models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expire()
	if _, ok := r.reports[id]; ok {
		r.remove(id)
	}
	for r.maxReports > 0 && len(r.order) >= r.maxReports {
		r.remove(r.order[0])
	}
	r.reports[id] = entry{report: report, savedAt: r.now()}
	r.order = append(r.order, id)
	return nil
}

func (r *ReportRepository) GetReport(_ context.Context, id string) (models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.reports[id]
	if !ok || r.expired(e) {
		return models.Report{}, models.ErrReportNotFound
	}
	return e.report, nil
}

// Len reports the number of stored entries, expired ones included until the next save.
func (r *ReportRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

func (r *ReportRepository) expired(e entry) bool {
	return r.ttl > 0 && r.now().Sub(e.savedAt) >= r.ttl
}

// expire drops expired entries. order is oldest first, so it stops at the first live one.
func (r *ReportRepository) expire() {
	for len(r.order) > 0 {
		id := r.order[0]
		if !r.expired(r.reports[id]) {
			return
		}
		r.remove(id)
	}
}

func (r *ReportRepository) remove(id string) {
	delete(r.reports, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
