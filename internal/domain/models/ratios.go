package models

// Group names one of the three ratio sets.
type Group string

const (
	GroupGeneral  Group = "general"
	GroupValue    Group = "value"
	GroupSolvency Group = "solvency"
)

// Groups lists the ratio groups in presentation order.
var Groups = []Group{GroupGeneral, GroupValue, GroupSolvency}

// IsValid reports whether g is a known group.
func (g Group) IsValid() bool {
	switch g {
	case GroupGeneral, GroupValue, GroupSolvency:
		return true
	default:
		return false
	}
}

// Title is the table heading for the group.
func (g Group) Title() string {
	switch g {
	case GroupGeneral:
		return "General Ratios"
	case GroupValue:
		return "WACC, ROIC and Value Creation"
	case GroupSolvency:
		return "Debt Solvency Ratios"
	default:
		return string(g)
	}
}

// Verdict says whether a company earns more than its cost of capital.
type Verdict string

const (
	VerdictCreating     Verdict = "creating value"
	VerdictDestroying   Verdict = "destroying value"
	VerdictThreshold    Verdict = "threshold"
	VerdictUndetermined Verdict = "undetermined"
)

// ReasonZeroTotalValue explains why WACC and ROIC are undefined.
const ReasonZeroTotalValue = "Total value is zero, cannot calculate WACC and ROIC"

// Assumptions are the macro inputs of the cost of capital model.
type Assumptions struct {
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" default:"0.03"`
	MarketReturn float64 `yaml:"market_return" json:"market_return" default:"0.08"`
	CostOfDebt   float64 `yaml:"cost_of_debt" json:"cost_of_debt" default:"0.05"`
	TaxRate      float64 `yaml:"tax_rate" json:"tax_rate" default:"0.21"`
	DefaultBeta  float64 `yaml:"default_beta" json:"default_beta" default:"1"`
}

// DefaultAssumptions returns the stock macro inputs.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		RiskFreeRate: 0.03,
		MarketReturn: 0.08,
		CostOfDebt:   0.05,
		TaxRate:      0.21,
		DefaultBeta:  1,
	}
}

// Record is a ratio record that can be laid out as a table row.
type Record interface {
	Symbol() string
	Fields() []Field
}

// GeneralRatios holds descriptive and valuation ratios for one ticker.
type GeneralRatios struct {
	Ticker            string `json:"ticker"`
	Company           string `json:"company"`
	Sector            string `json:"sector"`
	Industry          string `json:"industry"`
	Country           string `json:"country"`
	PE                Value  `json:"pe"`
	PriceToBook       Value  `json:"price_to_book"`
	PriceToFCF        Value  `json:"price_to_fcf"`
	Dividend          Value  `json:"dividend"`
	PayoutRatio       Value  `json:"payout_ratio"`
	ROE               Value  `json:"roe"`
	ROA               Value  `json:"roa"`
	CurrentRatio      Value  `json:"current_ratio"`
	OperatingCashFlow Value  `json:"operating_cash_flow"`
	LeverageRatio     Value  `json:"leverage_ratio"`
	LongTermDebtToCap Value  `json:"long_term_debt_to_capital"`
	DebtToCapital     Value  `json:"debt_to_capital"`
	OperatingMargin   Value  `json:"operating_margin"`
	ProfitMargin      Value  `json:"profit_margin"`
	EBIT              Value  `json:"ebit"`
	FreeCashFlow      Value  `json:"free_cash_flow"`
	CAPEX             Value  `json:"capex"`
	MarketCap         Value  `json:"market_cap"`
	SharesOutstanding Value  `json:"shares_outstanding"`
	Cash              Value  `json:"cash"`
	TotalLiabilities  Value  `json:"total_liabilities"`
	Equity            Value  `json:"equity"`
}

func (r GeneralRatios) Symbol() string { return r.Ticker }

func (r GeneralRatios) Fields() []Field {
	return []Field{
		TextField("Ticker", r.Ticker),
		TextField("Company", r.Company),
		TextField("Sector", r.Sector),
		TextField("Industry", r.Industry),
		TextField("Country", r.Country),
		NumField("P/E", r.PE),
		NumField("P/BV", r.PriceToBook),
		NumField("P/FCF", r.PriceToFCF),
		NumField("Dividend", r.Dividend),
		NumField("Payout Ratio", r.PayoutRatio),
		NumField("ROE", r.ROE),
		NumField("ROA", r.ROA),
		NumField("Current Ratio", r.CurrentRatio),
		NumField("Operating Cash Flow", r.OperatingCashFlow),
		NumField("Leverage Ratio", r.LeverageRatio),
		NumField("Long Term Debt / Capital", r.LongTermDebtToCap),
		NumField("Debt / Capital", r.DebtToCapital),
		NumField("Operating Margin", r.OperatingMargin),
		NumField("Profit Margin", r.ProfitMargin),
		NumField("EBIT", r.EBIT),
		NumField("Market Capitalization", r.MarketCap),
		NumField("Shares Outstanding", r.SharesOutstanding),
		NumField("Free Cash Flow", r.FreeCashFlow),
		NumField("CAPEX", r.CAPEX),
		NumField("Cash", r.Cash),
		NumField("Total Liabilities", r.TotalLiabilities),
		NumField("Equity", r.Equity),
	}
}

// ValueCreation holds the cost of capital, return on capital and verdict for one ticker.
type ValueCreation struct {
	Ticker       string  `json:"ticker"`
	WACC         Value   `json:"wacc"`
	ROIC         Value   `json:"roic"`
	CostOfEquity Value   `json:"cost_of_equity"`
	Verdict      Verdict `json:"verdict"`
	Reason       string  `json:"reason,omitempty"`
}

func (r ValueCreation) Symbol() string { return r.Ticker }

// Conclusion is the human readable outcome of the comparison.
func (r ValueCreation) Conclusion() string {
	if r.Reason != "" {
		return r.Reason
	}
	switch r.Verdict {
	case VerdictCreating:
		return "The company is creating value."
	case VerdictDestroying:
		return "The company is destroying value."
	case VerdictThreshold:
		return "The company is at the threshold of creating or destroying value."
	default:
		return NotAvailable
	}
}

func (r ValueCreation) Fields() []Field {
	return []Field{
		TextField("Ticker", r.Ticker),
		NumField("WACC", r.WACC),
		NumField("ROIC", r.ROIC),
		NumField("Cost of Equity", r.CostOfEquity),
		TextField("Conclusion", r.Conclusion()),
	}
}

// SolvencyRatios holds debt and liquidity ratios for one ticker.
type SolvencyRatios struct {
	Ticker             string `json:"ticker"`
	CurrentRatio       Value  `json:"current_ratio"`
	QuickRatio         Value  `json:"quick_ratio"`
	DebtToEquity       Value  `json:"debt_to_equity"`
	DebtToAssets       Value  `json:"debt_to_assets"`
	InterestCoverage   Value  `json:"interest_coverage"`
	DebtToTotalCapital Value  `json:"debt_to_total_capital"`
}

func (r SolvencyRatios) Symbol() string { return r.Ticker }

func (r SolvencyRatios) Fields() []Field {
	return []Field{
		TextField("Ticker", r.Ticker),
		NumField("Current Ratio", r.CurrentRatio),
		NumField("Quick Ratio", r.QuickRatio),
		NumField("Debt-to-Equity Ratio", r.DebtToEquity),
		NumField("Debt-to-Assets Ratio", r.DebtToAssets),
		NumField("Interest Coverage Ratio", r.InterestCoverage),
		NumField("Total Debt to Total Capital", r.DebtToTotalCapital),
	}
}

// TickerRatios bundles the three records of one ticker.
type TickerRatios struct {
	Ticker   string         `json:"ticker"`
	General  GeneralRatios  `json:"general"`
	Value    ValueCreation  `json:"value"`
	Solvency SolvencyRatios `json:"solvency"`
}
