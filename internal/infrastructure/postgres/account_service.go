package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain"
)

var _ ports.IdentityService = (*AccountService)(nil)

// AccountService credenciales de acceso en la tabla accounts (hash bcrypt y claims JSONB).
// Usa su propio Querier: no participa de la transacción de clínicas y usuarios.
type AccountService struct {
	q    Querier
	cost int
}

// NewAccountService construye el adaptador. cost 0 = bcrypt.DefaultCost.
func NewAccountService(q Querier, cost int) *AccountService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountService{q: q, cost: cost}
}

func (s *AccountService) CreateAccount(ctx context.Context, id, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash de contraseña: %w", err)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	_, err = s.q.Exec(ctx, `INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3)`, id, email, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Field: "email", Message: "cuenta de acceso ya existe para " + email}
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *AccountService) SetClaims(ctx context.Context, id string, claims ports.AccountClaims) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("claims jsonb: %w", err)
	}
	tag, err := s.q.Exec(ctx, `UPDATE accounts SET claims = $2 WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("update claims: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "cuenta", ID: id}
	}
	return nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*ports.Account, error) {
	var (
		acc  ports.Account
		hash string
		raw  []byte
	)
	err := s.q.QueryRow(ctx, `SELECT id, email, password_hash, claims FROM accounts WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email)).Scan(&acc.ID, &acc.Email, &hash, &raw)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if err := json.Unmarshal(raw, &acc.Claims); err != nil {
		return nil, fmt.Errorf("claims jsonb: %w", err)
	}
	return &acc, nil
}
