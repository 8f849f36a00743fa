package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRatio/internal/domain/models"
	"FinRatio/internal/services/ratios"
	"FinRatio/pkg/logger"
)

const profileJSON = `{"country":"US","currency":"USD","name":"Apple Inc","ticker":"AAPL",
"finnhubIndustry":"Technology","marketCapitalization":2800000,"shareOutstanding":15550}`

const metricJSON = `{"symbol":"AAPL","metricType":"all","metric":{"peTTM":29.5,"pbAnnual":45.1,
"pfcfShareTTM":27.2,"dividendPerShareAnnual":0.96,"payoutRatioTTM":15.5,"beta":1.25,"roeTTM":null}}`

// Reports are deliberately newest first.
const financialsJSON = `{"symbol":"AAPL","data":[
{"year":2023,"quarter":0,"form":"10-K","endDate":"2023-09-30 00:00:00","report":{
 "bs":[{"concept":"us-gaap_StockholdersEquity","value":62146},{"concept":"us-gaap_Assets","value":352583},
       {"concept":"us-gaap_AssetsCurrent","value":143566},{"concept":"us-gaap_LiabilitiesCurrent","value":145308},
       {"concept":"us-gaap_Liabilities","value":290437},{"concept":"us-gaap_LongTermDebtNoncurrent","value":95281},
       {"concept":"us-gaap_CashAndCashEquivalentsAtCarryingValue","value":29965},{"concept":"us-gaap_InventoryNet","value":6331}],
 "ic":[{"concept":"us-gaap_NetIncomeLoss","value":96995},
       {"concept":"us-gaap_RevenueFromContractWithCustomerExcludingAssessedTax","value":383285},
       {"concept":"us-gaap_OperatingIncomeLoss","value":114301},{"concept":"us-gaap_InterestExpense","value":3933},
       {"concept":"us-gaap_IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest","value":113736}],
 "cf":[{"concept":"us-gaap_NetCashProvidedByUsedInOperatingActivities","value":110543},
       {"concept":"us-gaap_PaymentsToAcquirePropertyPlantAndEquipment","value":10959},
       {"concept":"us-gaap_DepreciationDepletionAndAmortization","value":11519}]}},
{"year":2022,"quarter":0,"form":"10-K","endDate":"2022-09-24 00:00:00","report":{
 "bs":[{"concept":"us-gaap_StockholdersEquity","value":50672}],
 "ic":[{"concept":"us-gaap_NetIncomeLoss","value":99803}],
 "cf":[]}}]}`

func newTestServer(t *testing.T, profile string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Finnhub-Token"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"API limit reached"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/stock/profile2":
			_, _ = w.Write([]byte(profile))
		case "/stock/metric":
			assert.Equal(t, "all", r.URL.Query().Get("metric"))
			_, _ = w.Write([]byte(metricJSON))
		case "/stock/financials-reported":
			assert.Equal(t, "annual", r.URL.Query().Get("freq"))
			_, _ = w.Write([]byte(financialsJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return New(Config{APIKey: "test-key", BaseURL: url, RequestsPerSecond: 100}, logger.Nop())
}

func TestFetchMapsSnapshot(t *testing.T) {
	srv := newTestServer(t, profileJSON, http.StatusOK)

	s, err := newTestClient(srv.URL).Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", s.Ticker)
	assert.Equal(t, "Apple Inc", s.Profile.TextOr(models.KeyLongName))
	assert.Equal(t, "Technology", s.Profile.TextOr(models.KeyIndustry))
	assert.Equal(t, "US", s.Profile.TextOr(models.KeyCountry))

	mc, ok := s.Profile.Number(models.KeyMarketCap)
	require.True(t, ok)
	assert.InDelta(t, 2.8e12, mc, 1)
	assert.InDelta(t, 0.155, s.Profile.Value(models.KeyPayoutRatio).Or(0), 1e-9)
	assert.InDelta(t, 1.25, s.Profile.Value(models.KeyBeta).Or(0), 1e-9)
	assert.InDelta(t, 29.5, s.Profile.Value(models.KeyTrailingPE).Or(0), 1e-9)

	// Oldest first, so the latest value is the 2023 report.
	assert.Equal(t, []float64{50672, 62146}, s.BalanceSheet[models.TotalEquity])
	assert.Equal(t, []float64{99803, 96995}, s.IncomeStatement[models.NetIncome])
	assert.Equal(t, 145308.0, s.BalanceSheet.LatestOr(models.TotalCurrentLiabilities, 0))
	assert.Equal(t, 95281.0, s.BalanceSheet.LatestOr(models.LongTermDebt, 0))

	assert.Equal(t, 113736.0+3933.0, s.IncomeStatement.LatestOr(models.EBIT, 0))
	assert.Equal(t, 113736.0+3933.0+11519.0, s.IncomeStatement.LatestOr(models.EBITDA, 0))
	assert.Equal(t, -10959.0, s.CashFlow.LatestOr(models.CapitalExpenditures, 0))
	assert.Equal(t, 110543.0-10959.0, s.CashFlow.LatestOr(models.FreeCashFlow, 0))
}

func TestFetchUnknownTicker(t *testing.T) {
	srv := newTestServer(t, `{}`, http.StatusOK)

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTickerNotFound)
}

func TestFetchAPIError(t *testing.T) {
	srv := newTestServer(t, profileJSON, http.StatusTooManyRequests)

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "AAPL")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "/stock/profile2", apiErr.Endpoint)
	assert.Contains(t, apiErr.Message, "API limit reached")
}

func TestFetchCancelledContext(t *testing.T) {
	srv := newTestServer(t, profileJSON, http.StatusOK)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).Fetch(ctx, "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexStripsTaxonomyPrefix(t *testing.T) {
	got := index([]ReportItem{
		{Concept: "us-gaap_Assets", Value: 1},
		{Concept: "ifrs-full:Assets", Value: 2},
		{Concept: "Liabilities", Value: 3},
	})
	assert.Equal(t, 1.0, got["Assets"])
	assert.Equal(t, 3.0, got["Liabilities"])
}

func item(concept string, v float64) ReportItem {
	return ReportItem{Concept: "us-gaap_" + concept, Value: v}
}

func annual(year int, bs, ic, cf []ReportItem) Report {
	r := Report{Year: year, Form: "10-K"}
	r.Report.BS, r.Report.IC, r.Report.CF = bs, ic, cf
	return r
}

func TestMapReportsLatestComesFromNewestReport(t *testing.T) {
	s := models.NewSnapshot("ACME")
	mapReports(s, []Report{
		annual(2023, []ReportItem{item("StockholdersEquity", 1000)}, nil, nil),
		annual(2021,
			[]ReportItem{item("StockholdersEquity", 100), item("Liabilities", 900)},
			[]ReportItem{item("NetIncomeLoss", 10)}, nil),
	})

	assert.Equal(t, []float64{100, 1000}, s.BalanceSheet[models.TotalEquity])
	assert.False(t, s.BalanceSheet.Has(models.TotalLiabilities))
	assert.False(t, s.IncomeStatement.Has(models.NetIncome))

	g := ratios.New(models.DefaultAssumptions()).General(s)
	assert.False(t, g.ROE.Available())
	assert.False(t, g.DebtToCapital.Available())
}

func TestMapReportsSeriesStopsAtGap(t *testing.T) {
	s := models.NewSnapshot("ACME")
	mapReports(s, []Report{
		annual(2021, []ReportItem{item("Liabilities", 700)}, nil, nil),
		annual(2022, []ReportItem{item("StockholdersEquity", 200)}, nil, nil),
		annual(2023, []ReportItem{item("Liabilities", 900), item("StockholdersEquity", 300)}, nil, nil),
	})

	assert.Equal(t, []float64{900}, s.BalanceSheet[models.TotalLiabilities])
	assert.Equal(t, []float64{200, 300}, s.BalanceSheet[models.TotalEquity])
}

func TestMapReportsEBITDANeedsDepreciation(t *testing.T) {
	s := models.NewSnapshot("ACME")
	mapReports(s, []Report{
		annual(2023,
			[]ReportItem{item("LongTermDebt", 400)},
			[]ReportItem{item("OperatingIncomeLoss", 200)}, nil),
	})

	assert.Equal(t, []float64{200}, s.IncomeStatement[models.EBIT])
	assert.False(t, s.IncomeStatement.Has(models.EBITDA))

	g := ratios.New(models.DefaultAssumptions()).General(s)
	assert.False(t, g.LeverageRatio.Available())

	s = models.NewSnapshot("ACME")
	mapReports(s, []Report{
		annual(2023,
			[]ReportItem{item("LongTermDebt", 400)},
			[]ReportItem{item("OperatingIncomeLoss", 150), item("DepreciationAndAmortization", 50)}, nil),
	})
	assert.Equal(t, []float64{200}, s.IncomeStatement[models.EBITDA])
	g = ratios.New(models.DefaultAssumptions()).General(s)
	assert.InDelta(t, 2.0, g.LeverageRatio.Or(0), 1e-9)
}
