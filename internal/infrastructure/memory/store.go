// Package memory implementa los puertos de persistencia en memoria. Lo usan los tests
// y el modo STORAGE_DRIVER=memory para desarrollo local.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type state struct {
	clinics map[string]entity.Clinic
	users   map[string]entity.User
}

func newState() *state {
	return &state{
		clinics: make(map[string]entity.Clinic),
		users:   make(map[string]entity.User),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.clinics {
		out.clinics[k] = v
	}
	for k, v := range s.users {
		out.users[k] = copyUser(v)
	}
	return out
}

// Store documentos de clínicas y usuarios con transacciones por snapshot.
type Store struct {
	mu       sync.RWMutex
	st       *state
	failures map[string]error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), failures: make(map[string]error)}
}

// Clinics repositorio de clínicas fuera de transacción.
func (s *Store) Clinics() repository.ClinicRepository { return &clinicRepo{store: s} }

// Users repositorio de usuarios fuera de transacción.
func (s *Store) Users() repository.UserRepository { return &userRepo{store: s} }

// FailOn hace que la operación indicada (ej. "users.create") devuelva err.
// Solo para tests de atomicidad; err nil limpia la falla.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(clinics repository.ClinicRepository, users repository.UserRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&clinicRepo{store: s, tx: snapshot}, &userRepo{store: s, tx: snapshot}); err != nil {
		return err
	}
	s.st = snapshot
	return nil
}

// view ejecuta fn sobre el estado de la tx o, fuera de ella, bajo el lock del store.
func (s *Store) view(tx *state, write bool, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.st)
}

// failure se consulta con el lock ya tomado (por view o por Run).
func (s *Store) failure(op string) error {
	return s.failures[op]
}

func copyUser(u entity.User) entity.User {
	if u.Permissions != nil {
		perms := make([]entity.Permission, len(u.Permissions))
		copy(perms, u.Permissions)
		u.Permissions = perms
	}
	return u
}
