package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

var _ repository.ClinicRepository = (*ClinicRepo)(nil)

// ClinicRepo implementación de ClinicRepository (usable con pool o tx).
// Dirección y ajustes se guardan como JSONB.
type ClinicRepo struct {
	q Querier
}

// NewClinicRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClinicRepository(q Querier) *ClinicRepo {
	return &ClinicRepo{q: q}
}

const clinicColumns = `id, name, cnpj, code, email, phone, address, status, settings,
	COALESCE(admin_user_id, ''), created_by, created_at, updated_at`

// Create persiste una nueva clínica.
func (r *ClinicRepo) Create(ctx context.Context, c *entity.Clinic) error {
	address, settings, err := marshalClinicJSON(c)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO clinics (id, name, cnpj, code, email, phone, address, status, settings,
			admin_user_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13)`
	_, err = r.q.Exec(ctx, query,
		c.ID, c.Name, c.CNPJ, c.Code, c.Email, c.Phone, address, c.Status, settings,
		c.AdminUserID, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Field: clinicConflictField(err)}
		}
		return fmt.Errorf("insert clinic: %w", err)
	}
	return nil
}

func clinicConflictField(err error) string {
	switch constraintName(err) {
	case "clinics_email_key":
		return "email"
	case "clinics_pkey":
		return "id"
	default:
		return "cnpj"
	}
}

// GetByID obtiene una clínica por ID.
func (r *ClinicRepo) GetByID(ctx context.Context, id string) (*entity.Clinic, error) {
	return r.getOne(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE id = $1`, id)
}

// GetByCNPJ obtiene una clínica por CNPJ (solo dígitos).
func (r *ClinicRepo) GetByCNPJ(ctx context.Context, cnpj string) (*entity.Clinic, error) {
	return r.getOne(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE cnpj = $1`, cnpj)
}

// GetByEmail obtiene una clínica por email, sin distinguir mayúsculas.
func (r *ClinicRepo) GetByEmail(ctx context.Context, email string) (*entity.Clinic, error) {
	return r.getOne(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE lower(email) = lower($1)`, email)
}

func (r *ClinicRepo) getOne(ctx context.Context, query string, arg any) (*entity.Clinic, error) {
	c, err := scanClinic(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get clinic: %w", err)
	}
	return c, nil
}

// Update reemplaza los campos editables (última escritura gana). El estado solo
// cambia con UpdateStatus.
func (r *ClinicRepo) Update(ctx context.Context, c *entity.Clinic) error {
	address, settings, err := marshalClinicJSON(c)
	if err != nil {
		return err
	}
	query := `
		UPDATE clinics SET name = $2, code = $3, email = $4, phone = $5, address = $6,
			settings = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Code, c.Email, c.Phone, address, settings, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Field: clinicConflictField(err)}
		}
		return fmt.Errorf("update clinic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "clínica", ID: c.ID}
	}
	return nil
}

// UpdateStatus cambia solo el estado.
func (r *ClinicRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE clinics SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update clinic status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "clínica", ID: id}
	}
	return nil
}

// List clínicas, opcionalmente filtradas por estado.
func (r *ClinicRepo) List(ctx context.Context, filter repository.ClinicFilter) ([]*entity.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Clinic, 0)
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clinic: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete borra la clínica. Los usuarios se borran antes en la misma transacción.
func (r *ClinicRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM clinics WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete clinic: %w", err)
	}
	return nil
}

func scanClinic(row pgx.Row) (*entity.Clinic, error) {
	var (
		c                 entity.Clinic
		address, settings []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.CNPJ, &c.Code, &c.Email, &c.Phone, &address, &c.Status, &settings,
		&c.AdminUserID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &c.Address); err != nil {
		return nil, fmt.Errorf("address jsonb: %w", err)
	}
	if err := json.Unmarshal(settings, &c.Settings); err != nil {
		return nil, fmt.Errorf("settings jsonb: %w", err)
	}
	return &c, nil
}

func marshalClinicJSON(c *entity.Clinic) ([]byte, []byte, error) {
	address, err := json.Marshal(c.Address)
	if err != nil {
		return nil, nil, fmt.Errorf("address jsonb: %w", err)
	}
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("settings jsonb: %w", err)
	}
	return address, settings, nil
}
