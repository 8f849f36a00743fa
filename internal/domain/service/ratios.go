package service

import "FinRatio/internal/domain/models"

// Calculator derives the ratio groups from a company snapshot.
// Implementations are pure: the same snapshot always yields the same records.
type Calculator interface {
	General(s *models.Snapshot) models.GeneralRatios
	ValueCreation(s *models.Snapshot) models.ValueCreation
	Solvency(s *models.Snapshot) models.SolvencyRatios
	All(s *models.Snapshot) models.TickerRatios
}
