package ratios

import "FinRatio/internal/domain/models"

// General computes the descriptive and valuation ratios.
func (c *Calculator) General(s *models.Snapshot) models.GeneralRatios {
	s = orEmpty(s)
	p, bs, is, cf := s.Profile, s.BalanceSheet, s.IncomeStatement, s.CashFlow

	return models.GeneralRatios{
		Ticker:   s.Ticker,
		Company:  p.TextOr(models.KeyLongName),
		Sector:   p.TextOr(models.KeySector),
		Industry: p.TextOr(models.KeyIndustry),
		Country:  p.TextOr(models.KeyCountry),

		PE:          p.Value(models.KeyTrailingPE),
		PriceToBook: p.Value(models.KeyPriceToBook),
		PriceToFCF:  p.Value(models.KeyPriceToFreeCashflow),
		Dividend:    p.Value(models.KeyDividendRate),
		PayoutRatio: p.Value(models.KeyPayoutRatio),

		ROE:          statementRatio(is, models.NetIncome, bs, models.TotalEquity),
		ROA:          statementRatio(is, models.NetIncome, bs, models.TotalAssets),
		CurrentRatio: statementRatio(bs, models.TotalCurrentAssets, bs, models.TotalCurrentLiabilities),

		OperatingCashFlow: cf.Value(models.OperatingCashFlow),
		EBIT:              is.Value(models.EBIT),
		FreeCashFlow:      cf.Value(models.FreeCashFlow),
		CAPEX:             cf.Value(models.CapitalExpenditures),

		LeverageRatio:     statementRatio(bs, models.LongTermDebt, is, models.EBITDA),
		LongTermDebtToCap: statementRatio(bs, models.LongTermDebt, bs, models.TotalEquity),
		DebtToCapital:     statementRatio(bs, models.TotalLiabilities, bs, models.TotalEquity),
		OperatingMargin:   statementRatio(is, models.OperatingIncome, is, models.TotalRevenue),
		ProfitMargin:      statementRatio(is, models.NetIncome, is, models.TotalRevenue),

		MarketCap:         p.Value(models.KeyMarketCap),
		SharesOutstanding: p.Value(models.KeySharesOutstanding),

		Cash:             bs.Value(models.Cash),
		TotalLiabilities: bs.Value(models.TotalLiabilities),
		Equity:           bs.Value(models.TotalEquity),
	}
}
