package repository

import "context"

// TxRunner ejecuta fn con repos atados a una única transacción (todo o nada).
type TxRunner interface {
	Run(ctx context.Context, fn func(clinics ClinicRepository, users UserRepository) error) error
}
