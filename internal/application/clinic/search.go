package clinic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/pkg/cnpj"
)

// Orden de la búsqueda.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// fold quita acentos y normaliza mayúsculas: "São Paulo" y "sao paulo" coinciden.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.TrimSpace(out))
}

// Search búsqueda por subcadena (sin distinguir mayúsculas ni acentos) sobre nombre,
// CNPJ y email, con filtro de estado y orden por nombre, ciudad o fecha de alta.
// Por defecto ordena por fecha de alta descendente. Solo system_level.
func (s *Service) Search(ctx context.Context, actor entity.Actor, in dto.SearchClinicsRequest) (*dto.ClinicListResponse, error) {
	if err := access.RequireRole(actor, entity.RoleSystemLevel); err != nil {
		return nil, err
	}
	in.DefaultPage()
	if in.SortBy == "" {
		in.SortBy = repository.ClinicSortCreatedAt
	}
	if in.SortOrder == "" {
		in.SortOrder = SortDesc
	}
	var errs []string
	switch in.SortBy {
	case repository.ClinicSortName, repository.ClinicSortCity, repository.ClinicSortCreatedAt:
	default:
		errs = append(errs, fmt.Sprintf("sort_by inválido %q: se espera name, city o created_at", in.SortBy))
	}
	if in.SortOrder != SortAsc && in.SortOrder != SortDesc {
		errs = append(errs, fmt.Sprintf("sort_order inválido %q: se espera asc o desc", in.SortOrder))
	}
	switch in.Status {
	case "", entity.ClinicStatusActive, entity.ClinicStatusInactive, entity.ClinicStatusProvisioningFailed:
	default:
		errs = append(errs, fmt.Sprintf("estado desconocido: %q", in.Status))
	}
	if len(errs) > 0 {
		return nil, &domain.ValidationError{Result: domain.NewValidationResult(errs)}
	}

	all, err := s.clinics.List(ctx, repository.ClinicFilter{Status: in.Status})
	if err != nil {
		return nil, err
	}
	matched := filterClinics(all, in.Query)
	sortClinics(matched, in.SortBy, in.SortOrder == SortDesc)

	total := len(matched)
	start := in.Offset
	if start > total {
		start = total
	}
	end := start + in.Limit
	if end > total {
		end = total
	}
	items := make([]dto.ClinicResponse, 0, end-start)
	for _, c := range matched[start:end] {
		items = append(items, *toClinicResponse(c))
	}
	return &dto.ClinicListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

func filterClinics(all []*entity.Clinic, query string) []*entity.Clinic {
	q := fold(query)
	if q == "" {
		return all
	}
	qDigits := ""
	if isCNPJQuery(query) {
		qDigits = cnpj.Normalize(query)
	}
	out := make([]*entity.Clinic, 0, len(all))
	for _, c := range all {
		switch {
		case strings.Contains(fold(c.Name), q),
			strings.Contains(fold(c.Email), q),
			qDigits != "" && strings.Contains(c.CNPJ, qDigits):
			out = append(out, c)
		}
	}
	return out
}

// sortClinics orden estable; el id desempata para que la paginación sea determinista.
func sortClinics(list []*entity.Clinic, by string, desc bool) {
	less := func(a, b *entity.Clinic) int {
		switch by {
		case repository.ClinicSortName:
			return strings.Compare(fold(a.Name), fold(b.Name))
		case repository.ClinicSortCity:
			return strings.Compare(fold(a.Address.City), fold(b.Address.City))
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		c := less(list[i], list[j])
		if c == 0 {
			c = strings.Compare(list[i].ID, list[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// isCNPJQuery consulta con solo dígitos y la máscara del CNPJ.
func isCNPJQuery(q string) bool {
	hasDigit := false
	for _, r := range strings.TrimSpace(q) {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == '/' || r == '-':
		default:
			return false
		}
	}
	return hasDigit
}
