package finnhub

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"FinRatio/internal/domain/models"
	"FinRatio/pkg/util"
)

const million = 1e6

// concepts maps us-gaap concepts to line items, in order of preference.
var (
	balanceConcepts = map[string][]string{
		models.TotalEquity: {
			"StockholdersEquity",
			"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
		},
		models.TotalAssets:             {"Assets"},
		models.TotalCurrentAssets:      {"AssetsCurrent"},
		models.TotalCurrentLiabilities: {"LiabilitiesCurrent"},
		models.TotalLiabilities:        {"Liabilities"},
		models.LongTermDebt:            {"LongTermDebtNoncurrent", "LongTermDebt"},
		models.Cash: {
			"CashAndCashEquivalentsAtCarryingValue",
			"CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents",
		},
		models.Inventory: {"InventoryNet"},
	}

	incomeConcepts = map[string][]string{
		models.NetIncome: {"NetIncomeLoss", "ProfitLoss"},
		models.TotalRevenue: {
			"Revenues",
			"RevenueFromContractWithCustomerExcludingAssessedTax",
			"SalesRevenueNet",
		},
		models.OperatingIncome: {"OperatingIncomeLoss"},
		models.InterestExpense: {"InterestExpense", "InterestExpenseDebt"},
	}

	cashFlowConcepts = map[string][]string{
		models.OperatingCashFlow: {"NetCashProvidedByUsedInOperatingActivities"},
	}

	pretaxConcepts = []string{
		"IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest",
		"IncomeLossFromContinuingOperationsBeforeIncomeTaxesMinorityInterestAndIncomeLossFromEquityMethodInvestments",
		"IncomeLossFromContinuingOperationsBeforeIncomeTaxesDomestic",
	}
	depreciationConcepts = []string{
		"DepreciationDepletionAndAmortization",
		"DepreciationAndAmortization",
		"DepreciationAmortizationAndAccretionNet",
		"Depreciation",
	}
	capexConcepts = []string{"PaymentsToAcquirePropertyPlantAndEquipment", "PaymentsToAcquireProductiveAssets"}
)

func toSnapshot(ticker string, p *CompanyProfile, m *BasicFinancials, f *FinancialsReported) *models.Snapshot {
	s := models.NewSnapshot(ticker)
	mapProfile(s.Profile, p, m)
	if f != nil {
		mapReports(s, f.Data)
	}
	return s
}

func mapProfile(dst models.Profile, p *CompanyProfile, m *BasicFinancials) {
	setText := func(key, v string) {
		if strings.TrimSpace(v) != "" {
			dst[key] = v
		}
	}
	setText(models.KeyLongName, p.Name)
	setText(models.KeySector, p.FinnhubIndustry)
	setText(models.KeyIndustry, p.FinnhubIndustry)
	setText(models.KeyCountry, p.Country)
	if p.MarketCapitalization > 0 {
		dst[models.KeyMarketCap] = p.MarketCapitalization * million
	}
	if p.ShareOutstanding > 0 {
		dst[models.KeySharesOutstanding] = p.ShareOutstanding * million
	}

	if m == nil {
		return
	}
	metric := func(key, name string, scale float64) {
		if v, ok := m.Metric[name]; ok && v != nil && !math.IsNaN(*v) {
			dst[key] = *v * scale
		}
	}
	metric(models.KeyTrailingPE, "peTTM", 1)
	metric(models.KeyPriceToBook, "pbAnnual", 1)
	metric(models.KeyPriceToFreeCashflow, "pfcfShareTTM", 1)
	metric(models.KeyDividendRate, "dividendPerShareAnnual", 1)
	metric(models.KeyPayoutRatio, "payoutRatioTTM", 0.01)
	metric(models.KeyBeta, "beta", 1)
}

// period holds the line items one report contributes to each statement.
type period struct {
	bs, ic, cf map[string]float64
}

// mapReports builds each line item series from the newest report backwards, stopping at the
// first report that lacks the item, and stores it oldest first. An item missing from the
// newest report is absent.
func mapReports(s *models.Snapshot, reports []Report) {
	sorted := make([]Report, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return reportEnd(sorted[i]).After(reportEnd(sorted[j]))
	})

	periods := make([]period, 0, len(sorted))
	for _, r := range sorted {
		periods = append(periods, mapPeriod(r))
	}

	fill(s.BalanceSheet, periods, func(p period) map[string]float64 { return p.bs })
	fill(s.IncomeStatement, periods, func(p period) map[string]float64 { return p.ic })
	fill(s.CashFlow, periods, func(p period) map[string]float64 { return p.cf })
}

func mapPeriod(r Report) period {
	bs := index(r.Report.BS)
	ic := index(r.Report.IC)
	cf := index(r.Report.CF)
	p := period{
		bs: pick(bs, balanceConcepts),
		ic: pick(ic, incomeConcepts),
		cf: pick(cf, cashFlowConcepts),
	}

	interest, _ := first(ic, incomeConcepts[models.InterestExpense])
	ebit, hasEBIT := first(ic, pretaxConcepts)
	if hasEBIT {
		ebit += interest
	} else {
		ebit, hasEBIT = first(ic, incomeConcepts[models.OperatingIncome])
	}
	if hasEBIT {
		p.ic[models.EBIT] = ebit
		da, ok := first(cf, depreciationConcepts)
		if !ok {
			da, ok = first(ic, depreciationConcepts)
		}
		if ok {
			p.ic[models.EBITDA] = ebit + da
		}
	}

	if capex, ok := first(cf, capexConcepts); ok {
		capex = -math.Abs(capex)
		p.cf[models.CapitalExpenditures] = capex
		if ocf, ok := p.cf[models.OperatingCashFlow]; ok {
			p.cf[models.FreeCashFlow] = ocf + capex
		}
	}
	return p
}

// fill writes the series of every item present in the newest period. periods is newest first.
func fill(dst models.Statement, periods []period, items func(period) map[string]float64) {
	if len(periods) == 0 {
		return
	}
	for item := range items(periods[0]) {
		var series []float64
		for _, p := range periods {
			v, ok := items(p)[item]
			if !ok {
				break
			}
			series = append(series, v)
		}
		slices.Reverse(series)
		dst[item] = series
	}
}

func reportEnd(r Report) time.Time {
	return util.ParseTimeDefault(r.EndDate, time.Date(r.Year, time.December, 31, 0, 0, 0, 0, time.UTC))
}

// index keys report items by concept without the taxonomy prefix.
func index(items []ReportItem) map[string]float64 {
	out := make(map[string]float64, len(items))
	for _, it := range items {
		c := it.Concept
		if i := strings.IndexAny(c, "_:"); i >= 0 {
			c = c[i+1:]
		}
		if _, dup := out[c]; !dup {
			out[c] = it.Value
		}
	}
	return out
}

func first(items map[string]float64, concepts []string) (float64, bool) {
	for _, c := range concepts {
		if v, ok := items[c]; ok {
			return v, true
		}
	}
	return 0, false
}

func pick(items map[string]float64, concepts map[string][]string) map[string]float64 {
	out := make(map[string]float64, len(concepts))
	for item, cs := range concepts {
		if v, ok := first(items, cs); ok {
			out[item] = v
		}
	}
	return out
}
