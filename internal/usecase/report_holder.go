package usecase

import (
	"sync"

	"FinRatio/internal/domain/models"
)

// ReportListener is told about every newly published report.
type ReportListener interface {
	ReportReady(r *models.Report)
}

// ReportHolder keeps the latest finished report for concurrent readers.
type ReportHolder struct {
	mu        sync.RWMutex
	report    *models.Report
	listeners []ReportListener
}

func NewReportHolder() *ReportHolder {
	return &ReportHolder{}
}

// Subscribe registers a listener. Listeners are called synchronously after Set.
func (h *ReportHolder) Subscribe(l ReportListener) {
	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()
}

// Set replaces the latest report and notifies listeners.
func (h *ReportHolder) Set(r *models.Report) {
	h.mu.Lock()
	h.report = r
	listeners := append([]ReportListener(nil), h.listeners...)
	h.mu.Unlock()

	for _, l := range listeners {
		l.ReportReady(r)
	}
}

// Latest returns the latest report, if any run has completed.
func (h *ReportHolder) Latest() (*models.Report, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.report, h.report != nil
}
