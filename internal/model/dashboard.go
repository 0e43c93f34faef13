package model

// Metric is one month-over-month KPI card of the dashboard
type Metric struct {
	Key       string  `json:"key"`
	Title     string  `json:"title"`
	Value     float64 `json:"value"`
	Delta     float64 `json:"delta"`
	LastMonth float64 `json:"last_month"`
	Positive  bool    `json:"positive"`
	Prefix    string  `json:"prefix,omitempty"`
	Suffix    string  `json:"suffix,omitempty"`
}
