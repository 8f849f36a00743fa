package server

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRatio/internal/domain/models"
)

func TestPrintReport(t *testing.T) {
	r := &models.Report{
		Tickers: []string{"ACME"},
		General: []models.GeneralRatios{{Ticker: "ACME", Company: "Acme Corp", MarketCap: models.Num(1234567)}},
		Value: []models.ValueCreation{{
			Ticker: "ACME", WACC: models.Num(0.065), ROIC: models.Num(0.1756),
			CostOfEquity: models.Num(0.09), Verdict: models.VerdictCreating,
		}},
		Solvency: []models.SolvencyRatios{{Ticker: "ACME", DebtToEquity: models.Num(1)}},
		Errors:   []models.FetchError{{Ticker: "GONE", Group: models.GroupValue, Error: "ticker not found"}},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintReport(&buf, r))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "General Ratios\n==============\n"))
	assert.Contains(t, out, "WACC, ROIC and Value Creation")
	assert.Contains(t, out, "Debt Solvency Ratios")
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "0.0650")
	assert.Contains(t, out, "The company is creating value.")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "GONE (value): ticker not found")
}
