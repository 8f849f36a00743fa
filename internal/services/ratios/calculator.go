// Package ratios derives valuation, profitability and solvency ratios from company snapshots.
//
// Every function here is pure. Missing line items and zero denominators never fail; they
// produce models.Unavailable (or zero where the cost of capital model says so).
package ratios

import (
	"FinRatio/internal/domain/models"
	domsvc "FinRatio/internal/domain/service"
)

// Calculator implements service.Calculator with a fixed set of macro assumptions.
type Calculator struct {
	a models.Assumptions
}

var _ domsvc.Calculator = (*Calculator)(nil)

// New returns a Calculator using the given assumptions.
func New(a models.Assumptions) *Calculator {
	return &Calculator{a: a}
}

// All computes the three groups for one snapshot.
func (c *Calculator) All(s *models.Snapshot) models.TickerRatios {
	s = orEmpty(s)
	return models.TickerRatios{
		Ticker:   s.Ticker,
		General:  c.General(s),
		Value:    c.ValueCreation(s),
		Solvency: c.Solvency(s),
	}
}

func orEmpty(s *models.Snapshot) *models.Snapshot {
	if s == nil {
		return models.NewSnapshot("")
	}
	return s
}

// statementRatio divides the latest values of two line items, possibly from different statements.
func statementRatio(num models.Statement, numItem string, den models.Statement, denItem string) models.Value {
	n, ok := num.Latest(numItem)
	if !ok {
		return models.Unavailable
	}
	d, ok := den.Latest(denItem)
	if !ok {
		return models.Unavailable
	}
	return models.Ratio(n, d)
}
