package fmp

// calendarEvent is one row of the earning_calendar endpoint.
type calendarEvent struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
	Time   string `json:"time"` // "bmo", "amc" or "--"
}

// companyProfile is the subset of the profile endpoint the scanner needs.
// The calendar endpoint carries no company metadata, so every candidate is
// enriched from here.
type companyProfile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	MarketCap   float64 `json:"mktCap"`
}
