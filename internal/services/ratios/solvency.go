package ratios

import "FinRatio/internal/domain/models"

// Solvency computes the debt and liquidity ratios. Absent line items count as zero.
func (c *Calculator) Solvency(s *models.Snapshot) models.SolvencyRatios {
	s = orEmpty(s)
	bs, is := s.BalanceSheet, s.IncomeStatement

	currentAssets := bs.LatestOr(models.TotalCurrentAssets, 0)
	currentLiabilities := bs.LatestOr(models.TotalCurrentLiabilities, 0)
	inventory := bs.LatestOr(models.Inventory, 0)
	debt := bs.LatestOr(models.TotalLiabilities, 0)
	assets := bs.LatestOr(models.TotalAssets, 0)
	equity := bs.LatestOr(models.TotalEquity, 0)
	ebit := is.LatestOr(models.EBIT, 0)
	interest := is.LatestOr(models.InterestExpense, 0)

	return models.SolvencyRatios{
		Ticker:             s.Ticker,
		CurrentRatio:       models.Ratio(currentAssets, currentLiabilities),
		QuickRatio:         models.Ratio(currentAssets-inventory, currentLiabilities),
		DebtToEquity:       models.Ratio(debt, equity),
		DebtToAssets:       models.Ratio(debt, assets),
		InterestCoverage:   models.Ratio(ebit, interest),
		DebtToTotalCapital: models.Ratio(debt, debt+equity),
	}
}
