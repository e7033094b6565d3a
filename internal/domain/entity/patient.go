package entity

import "time"

// Patient paciente atendido por una clínica.
type Patient struct {
	ID        string
	ClinicID  string
	Name      string
	CPF       string
	Email     string
	Phone     string
	BirthDate time.Time
	CreatedAt time.Time
}
