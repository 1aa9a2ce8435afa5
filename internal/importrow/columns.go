package importrow

// TransactionColumns lists accepted labels for each logical column of a
// transaction sheet, in priority order.
type TransactionColumns struct {
	Date        []string
	Description []string
	Amount      []string
	Type        []string
	Account     []string
	Category    []string
	Subcategory []string
	Project     []string
	Partner     []string
}

// DefaultTransactionColumns returns the Spanish labels plus English aliases.
func DefaultTransactionColumns() TransactionColumns {
	return TransactionColumns{
		Date:        []string{"Fecha", "Date"},
		Description: []string{"Descripción", "Descripcion", "Description"},
		Amount:      []string{"Monto", "Amount"},
		Type:        []string{"Tipo", "Type"},
		Account:     []string{"Cuenta", "Account"},
		Category:    []string{"Categoría", "Categoria", "Category"},
		Subcategory: []string{"Subcategoría", "Subcategoria", "Subcategory"},
		Project:     []string{"Proyecto", "Project"},
		Partner:     []string{"Socio", "Partner"},
	}
}

// CategoryColumns lists accepted labels for a category sheet.
type CategoryColumns struct {
	Parent   []string
	Sub      []string
	Type     []string
	Note     []string
	TaxClass []string
}

// DefaultCategoryColumns returns the Spanish labels plus English aliases.
func DefaultCategoryColumns() CategoryColumns {
	return CategoryColumns{
		Parent:   []string{"Categoría Principal", "Categoria Principal", "Parent Category"},
		Sub:      []string{"Subcategoría", "Subcategoria", "Subcategory"},
		Type:     []string{"Tipo", "Type"},
		Note:     []string{"Nota", "Uso", "Note"},
		TaxClass: []string{"Clasificación Tributaria", "Clasificacion Tributaria", "Tax Class"},
	}
}
