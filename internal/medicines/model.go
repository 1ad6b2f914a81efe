package medicines

// Medicine is one inventory row.
type Medicine struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// InStock reports whether at least one unit remains.
func (m Medicine) InStock() bool {
	return m.Quantity > 0
}
