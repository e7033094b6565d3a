package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

type userRepo struct {
	store *Store
	tx    *state
}

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	return r.store.view(r.tx, true, func(st *state) error {
		if err := r.store.failure("users.create"); err != nil {
			return err
		}
		if strings.TrimSpace(u.ID) == "" {
			return domain.ErrInvalidInput
		}
		for _, other := range st.users {
			if strings.EqualFold(other.Email, u.Email) {
				return &domain.ConflictError{Field: "email"}
			}
		}
		st.users[u.ID] = copyUser(*u)
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepo) find(match func(entity.User) bool) (*entity.User, error) {
	var out *entity.User
	err := r.store.view(r.tx, false, func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				found := copyUser(u)
				out = &found
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) ListByClinic(ctx context.Context, clinicID string) ([]*entity.User, error) {
	out := make([]*entity.User, 0)
	err := r.store.view(r.tx, false, func(st *state) error {
		for _, u := range st.users {
			if u.ClinicID == clinicID {
				item := copyUser(u)
				out = append(out, &item)
			}
		}
		return nil
	})
	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.store.view(r.tx, true, func(st *state) error {
		delete(st.users, id)
		return nil
	})
}

func (r *userRepo) DeleteByClinic(ctx context.Context, clinicID string) error {
	return r.store.view(r.tx, true, func(st *state) error {
		if err := r.store.failure("users.delete_by_clinic"); err != nil {
			return err
		}
		for id, u := range st.users {
			if u.ClinicID == clinicID {
				delete(st.users, id)
			}
		}
		return nil
	})
}
