package finnhub

import "fmt"

// APIError is returned for non-2xx Finnhub responses.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finnhub api error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// CompanyProfile is /stock/profile2.
// Market capitalization and share counts are reported in millions.
type CompanyProfile struct {
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	Name                 string  `json:"name"`
	Ticker               string  `json:"ticker"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	ShareOutstanding     float64 `json:"shareOutstanding"`
}

// BasicFinancials is /stock/metric?metric=all. Values may be null.
type BasicFinancials struct {
	Symbol string              `json:"symbol"`
	Metric map[string]*float64 `json:"metric"`
}

// FinancialsReported is /stock/financials-reported.
type FinancialsReported struct {
	Symbol string   `json:"symbol"`
	Data   []Report `json:"data"`
}

// Report is one filing. Values are in reported units.
type Report struct {
	Year      int    `json:"year"`
	Quarter   int    `json:"quarter"`
	Form      string `json:"form"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Report    struct {
		BS []ReportItem `json:"bs"`
		IC []ReportItem `json:"ic"`
		CF []ReportItem `json:"cf"`
	} `json:"report"`
}

// ReportItem is one line of a filing statement, keyed by its XBRL concept.
type ReportItem struct {
	Concept string  `json:"concept"`
	Unit    string  `json:"unit"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
}
