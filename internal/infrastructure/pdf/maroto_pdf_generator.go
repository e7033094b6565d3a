// Package pdf implementa el informe de auditoría de una clínica.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre clínica + CNPJ  │  Fecha de emisión          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: entradas por severidad / generado por              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Acción | Actor | Recurso | Sev. | Estado     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR de verificación + leyenda                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/clinica-api/internal/application/ports"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/pkg/cnpj"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 96, Blue: 100}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorError   = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorWarning = &props.Color{Red: 180, Green: 110, Blue: 0}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ ports.AuditReportGenerator = (*MarotoReportGenerator)(nil)

// MarotoReportGenerator implementa ports.AuditReportGenerator usando Maroto v2.
type MarotoReportGenerator struct {
	loc *time.Location
}

// NewMarotoReportGenerator construye el generador. loc nil = UTC.
func NewMarotoReportGenerator(loc *time.Location) *MarotoReportGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &MarotoReportGenerator{loc: loc}
}

// Generate genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) Generate(
	_ context.Context,
	header ports.AuditReportHeader,
	entries []*entity.AuditLog,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Informe de auditoría", true).
		WithAuthor(header.GeneratedBy, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(header))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(header, entries))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(entries) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin entradas de auditoría para esta clínica.", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	m.AddRows(g.tableRows(entries)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(g.footerRow(header, len(entries)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar informe: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoReportGenerator) headerRow(h ports.AuditReportHeader) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(h.ClinicName, h.ClinicID), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("CNPJ: "+nonEmpty(cnpj.Format(h.CNPJ), "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("INFORME DE AUDITORÍA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Emitido: "+g.stamp(h.GeneratedAt), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func summaryRow(h ports.AuditReportHeader, entries []*entity.AuditLog) core.Row {
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Severity]++
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("RESUMEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Entradas: %d   |   info: %d   |   warning: %d   |   error: %d   |   Generado por: %s",
				len(entries),
				counts[entity.SeverityInfo],
				counts[entity.SeverityWarning],
				counts[entity.SeverityError],
				nonEmpty(h.GeneratedBy, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha (UTC)", 2, align.Left),
		h("Acción", 3, align.Left),
		h("Actor", 2, align.Left),
		h("Recurso", 3, align.Left),
		h("Sev.", 1, align.Center),
		h("Estado", 1, align.Center),
	)
}

// tableRows una fila por entrada, en el orden recibido (más reciente primero).
func (g *MarotoReportGenerator) tableRows(entries []*entity.AuditLog) []core.Row {
	result := make([]core.Row, 0, len(entries))
	cell := func(s string, a align.Type, c *props.Color) core.Component {
		return text.New(s, props.Text{Size: 7, Align: a, Top: 1, Left: 1, Right: 1, Color: c})
	}
	for _, e := range entries {
		result = append(result, row.New(6).Add(
			col.New(2).Add(cell(g.stamp(e.Timestamp), align.Left, nil)),
			col.New(3).Add(cell(e.Action, align.Left, nil)),
			col.New(2).Add(cell(shorten(e.ActorID, 14), align.Left, colorGray)),
			col.New(3).Add(cell(e.ResourceType+" "+shorten(e.ResourceID, 18), align.Left, colorGray)),
			col.New(1).Add(cell(e.Severity, align.Center, severityColor(e.Severity))),
			col.New(1).Add(cell(e.Status, align.Center, nil)),
		))
	}
	return result
}

func (g *MarotoReportGenerator) footerRow(h ports.AuditReportHeader, n int) core.Row {
	payload := fmt.Sprintf("clinic=%s;entries=%d;generated_at=%s",
		h.ClinicID, n, h.GeneratedAt.UTC().Format(time.RFC3339))
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(payload, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Registro de auditoría append-only.", props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3, Color: colorPrimary,
			}),
			text.New("Las entradas no pueden modificarse ni eliminarse. "+
				"El código QR identifica la clínica, el número de entradas y la fecha de emisión.",
				props.Text{Size: 7, Top: 12, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *MarotoReportGenerator) stamp(t time.Time) string {
	return t.In(g.loc).Format("02/01/2006 15:04")
}

func severityColor(s string) *props.Color {
	switch s {
	case entity.SeverityError:
		return colorError
	case entity.SeverityWarning:
		return colorWarning
	default:
		return nil
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// shorten recorta s a n runas con "…" al final.
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
