package entity

import "time"

// Client representa el cliente al que se facturan los envíos.
type Client struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
