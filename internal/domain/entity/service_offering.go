package entity

// ServiceOffering oferta de servicio de transporte (ej. Standard, Express).
// Pertenece al catálogo comercial; facturación solo la lee.
type ServiceOffering struct {
	ID     string
	Code   string
	Name   string
	Active bool
}

// Destination destino de entrega y la zona tarifaria a la que pertenece.
type Destination struct {
	ID     string
	Name   string
	ZoneID string
	Active bool
}
