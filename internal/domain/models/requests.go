package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type StockRequest struct {
	Symbol   string `param:"symbol" json:"symbol" validate:"required,ticker,max=10"`
	Interval string `query:"interval" json:"interval" validate:"omitempty,oneof=1min 5min 15min 30min 60min"`
}

type RefreshRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,ticker,max=10"`
}

type PageRequest struct {
	Symbol string `query:"symbol" form:"symbol" json:"symbol" validate:"omitempty,ticker,max=10"`
	Notice string `query:"notice" json:"notice" validate:"omitempty,oneof=refreshed throttled"`
}
