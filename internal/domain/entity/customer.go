package entity

import "time"

// Customer cliente del taller. Se administra fuera de este servicio; aquí
// solo se lee para validar facturas y obtener datos de contacto.
type Customer struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	CreatedAt time.Time
}
