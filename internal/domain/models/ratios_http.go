package models

// Requests for ratio HTTP endpoints.

type GroupRequest struct {
	Group string `param:"group" json:"group" validate:"required,oneof=general value solvency"`
}

type TickerRequest struct {
	Symbol  string `param:"symbol" json:"symbol" validate:"required,max=16"`
	Refresh bool   `query:"refresh" json:"refresh"`
}
