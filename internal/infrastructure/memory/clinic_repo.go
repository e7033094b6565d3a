package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

type clinicRepo struct {
	store *Store
	tx    *state
}

func (r *clinicRepo) Create(ctx context.Context, c *entity.Clinic) error {
	return r.store.view(r.tx, true, func(st *state) error {
		if err := r.store.failure("clinics.create"); err != nil {
			return err
		}
		if strings.TrimSpace(c.ID) == "" {
			return domain.ErrInvalidInput
		}
		if _, exists := st.clinics[c.ID]; exists {
			return &domain.ConflictError{Field: "id"}
		}
		for _, other := range st.clinics {
			if other.CNPJ == c.CNPJ {
				return &domain.ConflictError{Field: "cnpj"}
			}
		}
		st.clinics[c.ID] = *c
		return nil
	})
}

func (r *clinicRepo) GetByID(ctx context.Context, id string) (*entity.Clinic, error) {
	return r.find(func(c entity.Clinic) bool { return c.ID == id })
}

func (r *clinicRepo) GetByCNPJ(ctx context.Context, cnpj string) (*entity.Clinic, error) {
	return r.find(func(c entity.Clinic) bool { return c.CNPJ == cnpj })
}

func (r *clinicRepo) GetByEmail(ctx context.Context, email string) (*entity.Clinic, error) {
	return r.find(func(c entity.Clinic) bool { return strings.EqualFold(c.Email, email) })
}

func (r *clinicRepo) find(match func(entity.Clinic) bool) (*entity.Clinic, error) {
	var out *entity.Clinic
	err := r.store.view(r.tx, false, func(st *state) error {
		for _, c := range st.clinics {
			if match(c) {
				found := c
				out = &found
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *clinicRepo) Update(ctx context.Context, c *entity.Clinic) error {
	return r.store.view(r.tx, true, func(st *state) error {
		if err := r.store.failure("clinics.update"); err != nil {
			return err
		}
		stored, ok := st.clinics[c.ID]
		if !ok {
			return &domain.NotFoundError{Resource: "clínica", ID: c.ID}
		}
		next := *c
		next.Status = stored.Status
		next.CNPJ = stored.CNPJ
		next.AdminUserID = stored.AdminUserID
		next.CreatedBy = stored.CreatedBy
		next.CreatedAt = stored.CreatedAt
		st.clinics[c.ID] = next
		return nil
	})
}

func (r *clinicRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.store.view(r.tx, true, func(st *state) error {
		if err := r.store.failure("clinics.update_status"); err != nil {
			return err
		}
		c, ok := st.clinics[id]
		if !ok {
			return &domain.NotFoundError{Resource: "clínica", ID: id}
		}
		c.Status = status
		st.clinics[id] = c
		return nil
	})
}

func (r *clinicRepo) List(ctx context.Context, filter repository.ClinicFilter) ([]*entity.Clinic, error) {
	out := make([]*entity.Clinic, 0)
	err := r.store.view(r.tx, false, func(st *state) error {
		for _, c := range st.clinics {
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			item := c
			out = append(out, &item)
		}
		return nil
	})
	return out, err
}

func (r *clinicRepo) Delete(ctx context.Context, id string) error {
	return r.store.view(r.tx, true, func(st *state) error {
		if err := r.store.failure("clinics.delete"); err != nil {
			return err
		}
		delete(st.clinics, id)
		return nil
	})
}
