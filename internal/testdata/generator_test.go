package testdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/cuentas/internal/catalog"
	"github.com/jask/cuentas/internal/importrow"
	"github.com/jask/cuentas/internal/service"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRowsAreDeterministic(t *testing.T) {
	a := Rows(7, 20, start, DefaultPools(), catalog.Default())
	b := Rows(7, 20, start, DefaultPools(), catalog.Default())
	require.Equal(t, a, b)
	require.NotEqual(t, a, Rows(8, 20, start, DefaultPools(), catalog.Default()))
}

func TestRowsNormalize(t *testing.T) {
	opts := service.DefaultImportOptions()
	for i, row := range Rows(42, 300, start, DefaultPools(), catalog.Default()) {
		draft, err := importrow.NormalizeTransaction(row, opts.Columns, opts.DateLayouts)
		require.NoError(t, err, "row %d: %v", i, row)
		require.True(t, draft.Amount.IsPositive())
		require.False(t, draft.Date.Before(start))
		require.True(t, draft.Date.Before(start.AddDate(0, 0, 90)))
	}
}

func TestGroupThousands(t *testing.T) {
	require.Equal(t, "1,000", groupThousands(1000))
	require.Equal(t, "999", groupThousands(999))
	require.Equal(t, "3,001,000", groupThousands(3001000))

	d, err := importrow.ParseAmount(importrow.Text("$ " + groupThousands(1234567)))
	require.NoError(t, err)
	require.Equal(t, "1234567", d.String())
}

func TestCategoryRows(t *testing.T) {
	cat := catalog.Default()
	_, subs := cat.Size()
	rows := CategoryRows(cat)
	require.Len(t, rows, subs)

	for _, row := range rows {
		_, ok := importrow.NormalizeCategory(row, importrow.DefaultCategoryColumns())
		require.True(t, ok)
	}
}
