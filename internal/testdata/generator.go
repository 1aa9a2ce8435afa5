// Package testdata builds synthetic spreadsheet rows for demos and bulk
// import tests.
package testdata

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/jask/cuentas/internal/catalog"
	"github.com/jask/cuentas/internal/importrow"
)

// Pools bounds the distinct names generated rows refer to.
type Pools struct {
	Accounts []string
	Partners []string
	Projects []string
}

// DefaultPools are small enough that a few hundred rows reuse every name.
func DefaultPools() Pools {
	return Pools{
		Accounts: []string{"Bancolombia", "Nequi", "Efectivo", "Davivienda"},
		Partners: []string{"Ana", "Luis"},
		Projects: []string{"Casa Palmas", "Finca"},
	}
}

var descriptions = []string{"Mercado", "Arriendo", "Gasolina", "Sueldo", "Internet", "Restaurante", "Honorarios", "Farmacia"}

// Rows returns n valid transaction rows using the default column labels.
// The same seed gives the same rows. Dates fall in the 90 days after from.
func Rows(seed uint64, n int, from time.Time, pools Pools, cat catalog.Catalog) []importrow.Row {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rows := make([]importrow.Row, 0, n)
	for range n {
		date := from.AddDate(0, 0, r.IntN(90))
		row := importrow.Row{
			"Descripción": importrow.Text(descriptions[r.IntN(len(descriptions))]),
			"Cuenta":      importrow.Text(pick(r, pools.Accounts)),
		}
		if r.IntN(2) == 0 {
			row["Fecha"] = importrow.Number(float64(serial(date)))
		} else {
			row["Fecha"] = importrow.Text(date.Format(time.DateOnly))
		}
		row["Monto"] = amount(r)

		typ := "Gasto"
		if len(cat) > 0 {
			p := cat[r.IntN(len(cat))]
			if p.Type == importrow.TypeIncome {
				typ = "Ingreso"
			}
			row["Categoría"] = importrow.Text(p.Name)
			if len(p.Subs) > 0 && r.IntN(3) > 0 {
				row["Subcategoría"] = importrow.Text(p.Subs[r.IntN(len(p.Subs))].Name)
			}
		} else if r.IntN(4) == 0 {
			typ = "Ingreso"
		}
		row["Tipo"] = importrow.Text(typ)

		if len(pools.Partners) > 0 && r.IntN(4) == 0 {
			row["Socio"] = importrow.Text(pick(r, pools.Partners))
		}
		if len(pools.Projects) > 0 && r.IntN(5) == 0 {
			row["Proyecto"] = importrow.Text(pick(r, pools.Projects))
		}
		rows = append(rows, row)
	}
	return rows
}

// CategoryRows flattens a catalog into category import rows, one per
// subcategory.
func CategoryRows(cat catalog.Catalog) []importrow.Row {
	var rows []importrow.Row
	for _, p := range cat {
		typ := "Gasto"
		if p.Type == importrow.TypeIncome {
			typ = "Ingreso"
		}
		for _, s := range p.Subs {
			row := importrow.Row{
				"Categoría Principal": importrow.Text(p.Name),
				"Subcategoría":        importrow.Text(s.Name),
				"Tipo":                importrow.Text(typ),
			}
			if s.Note != "" {
				row["Nota"] = importrow.Text(s.Note)
			}
			if s.TaxDeductible {
				row["Clasificación Tributaria"] = importrow.Text("Deducible")
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func pick(r *rand.Rand, names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[r.IntN(len(names))]
}

// serial converts a UTC date to a spreadsheet serial day number.
func serial(d time.Time) int {
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return int(d.Sub(epoch).Hours() / 24)
}

// amount renders a positive whole peso value in one of the formats people
// type into spreadsheets.
func amount(r *rand.Rand) importrow.Value {
	v := 1000 + r.IntN(3_000_000)
	switch r.IntN(3) {
	case 0:
		return importrow.Number(float64(v))
	case 1:
		return importrow.Text("$" + strconv.Itoa(v))
	default:
		return importrow.Text("$ " + groupThousands(v))
	}
}

// groupThousands writes v with comma separators, e.g. 1,234,567.
func groupThousands(v int) string {
	s := strconv.Itoa(v)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
