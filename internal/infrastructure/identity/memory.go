// Package identity contiene el adaptador en memoria del servicio de cuentas de acceso,
// usado en desarrollo y tests. La versión persistente vive en infrastructure/postgres.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain"
)

// Verificar en tiempo de compilación que MemoryService implementa IdentityService.
var _ ports.IdentityService = (*MemoryService)(nil)

type account struct {
	id     string
	email  string
	hash   []byte
	claims ports.AccountClaims
}

// MemoryService cuentas en memoria con contraseñas bcrypt.
type MemoryService struct {
	mu       sync.RWMutex
	byID     map[string]*account
	failures map[string]error
	cost     int
}

// NewMemoryService construye el adaptador. cost 0 = bcrypt.MinCost (rápido para tests).
func NewMemoryService(cost int) *MemoryService {
	if cost == 0 {
		cost = bcrypt.MinCost
	}
	return &MemoryService{
		byID:     make(map[string]*account),
		failures: make(map[string]error),
		cost:     cost,
	}
}

// FailOn fuerza un error en "create", "claims" o "delete". err nil limpia la falla.
func (s *MemoryService) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Has informa si existe una cuenta con ese ID.
func (s *MemoryService) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Claims devuelve los claims de la cuenta (zero value si no existe).
func (s *MemoryService) Claims(id string) ports.AccountClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byID[id]; ok {
		return a.claims
	}
	return ports.AccountClaims{}
}

func (s *MemoryService) CreateAccount(ctx context.Context, id, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["create"]; err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range s.byID {
		if a.email == email {
			return &domain.ConflictError{Field: "email", Message: "cuenta de acceso ya existe para " + email}
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("identity: hash de contraseña: %w", err)
	}
	s.byID[id] = &account{id: id, email: email, hash: hash}
	return nil
}

func (s *MemoryService) SetClaims(ctx context.Context, id string, claims ports.AccountClaims) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["claims"]; err != nil {
		return err
	}
	a, ok := s.byID[id]
	if !ok {
		return &domain.NotFoundError{Resource: "cuenta", ID: id}
	}
	a.claims = claims
	return nil
}

func (s *MemoryService) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["delete"]; err != nil {
		return err
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryService) Authenticate(ctx context.Context, email, password string) (*ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range s.byID {
		if a.email != email {
			continue
		}
		if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
			return nil, domain.ErrUnauthorized
		}
		return &ports.Account{ID: a.id, Email: a.email, Claims: a.claims}, nil
	}
	return nil, domain.ErrUnauthorized
}
