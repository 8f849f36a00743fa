package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrTickerNotFound is returned by providers that know nothing about a symbol.
var ErrTickerNotFound = errors.New("ticker not found")

// Profile keys.
const (
	KeyLongName            = "longName"
	KeySector              = "sector"
	KeyIndustry            = "industry"
	KeyCountry             = "country"
	KeyTrailingPE          = "trailingPE"
	KeyPriceToBook         = "priceToBook"
	KeyPriceToFreeCashflow = "priceToFreeCashflow"
	KeyDividendRate        = "dividendRate"
	KeyPayoutRatio         = "payoutRatio"
	KeyMarketCap           = "marketCap"
	KeySharesOutstanding   = "sharesOutstanding"
	KeyBeta                = "beta"
)

// Statement line items.
const (
	TotalEquity             = "Total Equity"
	TotalAssets             = "Total Assets"
	TotalCurrentAssets      = "Total Current Assets"
	TotalCurrentLiabilities = "Total Current Liabilities"
	TotalLiabilities        = "Total Liabilities"
	LongTermDebt            = "Long Term Debt"
	Cash                    = "Cash"
	Inventory               = "Inventory"

	NetIncome       = "Net Income"
	TotalRevenue    = "Total Revenue"
	OperatingIncome = "Operating Income"
	EBIT            = "EBIT"
	EBITDA          = "EBITDA"
	InterestExpense = "Interest Expense"

	OperatingCashFlow   = "Operating Cash Flow"
	FreeCashFlow        = "Free Cash Flow"
	CapitalExpenditures = "Capital Expenditures"
)

// Profile holds scalar company attributes (text or numbers).
type Profile map[string]any

// Text returns the profile entry as text.
func (p Profile) Text(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

// TextOr returns the entry as text or NotAvailable.
func (p Profile) TextOr(key string) string {
	if s, ok := p.Text(key); ok {
		return s
	}
	return NotAvailable
}

// Number returns the entry as a number. Numeric strings are accepted.
func (p Profile) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Value returns the entry as a Value.
func (p Profile) Value(key string) Value {
	if n, ok := p.Number(key); ok {
		return Num(n)
	}
	return Unavailable
}

// Statement maps a line item to its values ordered oldest first.
type Statement map[string][]float64

// Has reports whether the line item is present with at least one value.
func (s Statement) Has(item string) bool {
	return len(s[item]) > 0
}

// Latest returns the most recent value of a line item.
func (s Statement) Latest(item string) (float64, bool) {
	vs := s[item]
	if len(vs) == 0 {
		return 0, false
	}
	return vs[len(vs)-1], true
}

// LatestOr returns the most recent value or def when absent.
func (s Statement) LatestOr(item string, def float64) float64 {
	if v, ok := s.Latest(item); ok {
		return v
	}
	return def
}

// Value returns the most recent value as a Value.
func (s Statement) Value(item string) Value {
	if v, ok := s.Latest(item); ok {
		return Num(v)
	}
	return Unavailable
}

// Snapshot is the raw data for one ticker at fetch time.
type Snapshot struct {
	Ticker          string    `json:"ticker" yaml:"-"`
	FetchedAt       time.Time `json:"fetched_at" yaml:"-"`
	Profile         Profile   `json:"profile" yaml:"profile"`
	BalanceSheet    Statement `json:"balance_sheet" yaml:"balance_sheet"`
	IncomeStatement Statement `json:"income_statement" yaml:"income_statement"`
	CashFlow        Statement `json:"cash_flow" yaml:"cash_flow"`
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot(ticker string) *Snapshot {
	return &Snapshot{
		Ticker:          ticker,
		FetchedAt:       time.Now().UTC(),
		Profile:         Profile{},
		BalanceSheet:    Statement{},
		IncomeStatement: Statement{},
		CashFlow:        Statement{},
	}
}
