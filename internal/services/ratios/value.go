package ratios

import "FinRatio/internal/domain/models"

// ValueCreation compares return on invested capital against the weighted cost of capital.
//
// Absent inputs default to zero and beta to the configured default. When equity plus
// liabilities is zero the result carries ReasonZeroTotalValue instead of numbers.
func (c *Calculator) ValueCreation(s *models.Snapshot) models.ValueCreation {
	s = orEmpty(s)
	bs, is := s.BalanceSheet, s.IncomeStatement

	equity := bs.LatestOr(models.TotalEquity, 0)
	debt := bs.LatestOr(models.TotalLiabilities, 0)
	cash := bs.LatestOr(models.Cash, 0)
	ebit := is.LatestOr(models.EBIT, 0)

	out := models.ValueCreation{Ticker: s.Ticker}

	total := equity + debt
	if total == 0 {
		out.WACC = models.Unavailable
		out.ROIC = models.Unavailable
		out.CostOfEquity = models.Unavailable
		out.Verdict = models.VerdictUndetermined
		out.Reason = models.ReasonZeroTotalValue
		return out
	}

	beta, ok := s.Profile.Number(models.KeyBeta)
	if !ok {
		beta = c.a.DefaultBeta
	}

	coe := CostOfEquity(c.a.RiskFreeRate, beta, c.a.MarketReturn)
	wacc := equity/total*coe + debt/total*c.a.CostOfDebt*(1-c.a.TaxRate)

	nopat := 0.0
	if ebit > 0 {
		nopat = ebit * (1 - c.a.TaxRate)
	}
	invested := equity + debt - cash
	roic := 0.0
	if invested > 0 {
		roic = nopat / invested
	}

	out.CostOfEquity = models.Num(coe)
	out.WACC = models.Num(wacc)
	out.ROIC = models.Num(roic)
	out.Verdict = Judge(roic, wacc)
	return out
}

// CostOfEquity is the CAPM expected return.
func CostOfEquity(riskFree, beta, marketReturn float64) float64 {
	return riskFree + beta*(marketReturn-riskFree)
}

// Judge compares ROIC with WACC.
func Judge(roic, wacc float64) models.Verdict {
	switch {
	case roic > wacc:
		return models.VerdictCreating
	case roic < wacc:
		return models.VerdictDestroying
	default:
		return models.VerdictThreshold
	}
}
