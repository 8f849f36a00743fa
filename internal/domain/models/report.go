package models

import "time"

// FetchError records a ticker whose snapshot could not be fetched during a run.
type FetchError struct {
	Ticker string `json:"ticker"`
	Group  Group  `json:"group"`
	Error  string `json:"error"`
}

// Report is the outcome of one pass over the configured tickers.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Tickers    []string         `json:"tickers"`
	General    []GeneralRatios  `json:"general"`
	Value      []ValueCreation  `json:"value"`
	Solvency   []SolvencyRatios `json:"solvency"`
	Errors     []FetchError     `json:"errors,omitempty"`
}

// Table returns the presentation table for a group.
func (r *Report) Table(g Group) Table {
	switch g {
	case GroupGeneral:
		return NewTable(g, r.General)
	case GroupValue:
		return NewTable(g, r.Value)
	default:
		return NewTable(g, r.Solvency)
	}
}

// Tables returns the three tables in presentation order.
func (r *Report) Tables() []Table {
	out := make([]Table, 0, len(Groups))
	for _, g := range Groups {
		out = append(out, r.Table(g))
	}
	return out
}

// Records returns the records of a group as generic rows.
func (r *Report) Records(g Group) []Record {
	var out []Record
	switch g {
	case GroupGeneral:
		for _, rec := range r.General {
			out = append(out, rec)
		}
	case GroupValue:
		for _, rec := range r.Value {
			out = append(out, rec)
		}
	case GroupSolvency:
		for _, rec := range r.Solvency {
			out = append(out, rec)
		}
	}
	return out
}
