package coingecko

// Market is the subset of a /coins/markets row consumed for history
// enrichment. The full upstream payload is proxied to clients as opaque bytes;
// only these fields are interpreted server-side.
type Market struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	CurrentPrice *float64 `json:"current_price"`
}
