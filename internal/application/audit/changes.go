package audit

import (
	"reflect"
	"sort"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// Changes compara clave por clave (superficial) y devuelve solo las claves cuyo
// valor difiere, como pares from/to. Una clave ausente en un lado vale nil.
func Changes(before, after map[string]any) map[string]entity.FieldChange {
	out := make(map[string]entity.FieldChange)
	for k, from := range before {
		to, ok := after[k]
		if !ok {
			to = nil
		}
		if !reflect.DeepEqual(from, to) {
			out[k] = entity.FieldChange{From: from, To: to}
		}
	}
	for k, to := range after {
		if _, seen := before[k]; seen {
			continue
		}
		if to != nil {
			out[k] = entity.FieldChange{From: nil, To: to}
		}
	}
	return out
}

// ChangedFields nombres de campo modificados, ordenados.
func ChangedFields(changes map[string]entity.FieldChange) []string {
	out := make([]string, 0, len(changes))
	for k := range changes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
