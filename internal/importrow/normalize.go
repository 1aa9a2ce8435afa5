package importrow

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalization failure reasons.
const (
	ReasonMissingField  = "missing_required_field"
	ReasonInvalidDate   = "invalid_date"
	ReasonInvalidAmount = "invalid_amount"
)

// Transaction kinds produced by InferType.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// serialEpoch is day 0 of the spreadsheet serial date system.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31, the last day spreadsheets can display.
const maxSerial = 2958465

// NormalizeError explains why a row could not be normalized.
type NormalizeError struct {
	Reason string
	Field  string
	Err    error
}

func (e *NormalizeError) Error() string {
	switch {
	case e.Reason == ReasonMissingField:
		return "Row missing required fields"
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Reason, e.Field, e.Err)
	default:
		return fmt.Sprintf("%s %s", e.Reason, e.Field)
	}
}

func (e *NormalizeError) Unwrap() error { return e.Err }

// TransactionRow is a validated transaction draft. Name fields are trimmed
// and empty when absent.
type TransactionRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        string
	Account     string
	Category    string
	Subcategory string
	Project     string
	Partner     string
}

// CategoryRow is a validated category sheet row.
type CategoryRow struct {
	Parent        string
	Sub           string
	Type          string
	Note          string
	TaxDeductible bool
}

// SerialDate converts a spreadsheet serial date (day 0 = 1899-12-30) to a
// UTC timestamp. The fractional part is the time of day. Callers bound the
// serial first; ParseDate rejects anything past 9999-12-31.
func SerialDate(serial float64) time.Time {
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}

// InferType maps the raw type cell to income or expense. Only "income" and
// "ingreso" (any case) mean income.
func InferType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "income", "ingreso":
		return TypeIncome
	default:
		return TypeExpense
	}
}

// NormalizeTransaction validates one transaction row. Date, amount, and
// account are required; a zero amount counts as missing.
func NormalizeTransaction(row Row, cols TransactionColumns, layouts []string) (TransactionRow, error) {
	out := TransactionRow{
		Description: row.Get(cols.Description...).String(),
		Type:        InferType(row.Get(cols.Type...).String()),
		Account:     row.Get(cols.Account...).String(),
		Category:    row.Get(cols.Category...).String(),
		Subcategory: row.Get(cols.Subcategory...).String(),
		Project:     row.Get(cols.Project...).String(),
		Partner:     row.Get(cols.Partner...).String(),
	}

	dateCell := row.Get(cols.Date...)
	amountCell := row.Get(cols.Amount...)
	switch {
	case dateCell.IsEmpty():
		return out, &NormalizeError{Reason: ReasonMissingField, Field: "date"}
	case amountCell.IsEmpty():
		return out, &NormalizeError{Reason: ReasonMissingField, Field: "amount"}
	case out.Account == "":
		return out, &NormalizeError{Reason: ReasonMissingField, Field: "account"}
	}

	amount, err := ParseAmount(amountCell)
	if err != nil {
		return out, &NormalizeError{Reason: ReasonInvalidAmount, Field: "amount", Err: err}
	}
	if amount.IsZero() {
		return out, &NormalizeError{Reason: ReasonMissingField, Field: "amount"}
	}
	out.Amount = amount.Abs()

	date, err := ParseDate(dateCell, layouts)
	if err != nil {
		return out, &NormalizeError{Reason: ReasonInvalidDate, Field: "date", Err: err}
	}
	out.Date = date
	return out, nil
}

// NormalizeCategory validates one category row. It reports false when the
// parent or type column is blank; such rows are skipped, not errors.
func NormalizeCategory(row Row, cols CategoryColumns) (CategoryRow, bool) {
	parent := row.Get(cols.Parent...).String()
	typ := row.Get(cols.Type...).String()
	if parent == "" || typ == "" {
		return CategoryRow{}, false
	}
	return CategoryRow{
		Parent:        parent,
		Sub:           row.Get(cols.Sub...).String(),
		Type:          InferType(typ),
		Note:          row.Get(cols.Note...).String(),
		TaxDeductible: strings.EqualFold(row.Get(cols.TaxClass...).String(), "Deducible"),
	}, true
}

// ParseDate reads a numeric cell as a serial date and a text cell with the
// first matching layout. Text dates without a zone are taken as UTC.
func ParseDate(v Value, layouts []string) (time.Time, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) || v.Number < 0 || v.Number >= maxSerial+1 {
			return time.Time{}, fmt.Errorf("serial date %v out of range", v.Number)
		}
		return SerialDate(v.Number), nil
	case KindText:
		s := strings.TrimSpace(v.Text)
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	default:
		return time.Time{}, errors.New("empty date")
	}
}

var amountNoise = strings.NewReplacer("$", "", "COP", "", "cop", "", " ", "", " ", "")

// ParseAmount reads a monetary cell. Text may carry a currency symbol and
// thousands separators in either the 1.234,56 or the 1,234.56 style.
func ParseAmount(v Value) (decimal.Decimal, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return decimal.Zero, fmt.Errorf("amount %v is not finite", v.Number)
		}
		return decimal.NewFromFloat(v.Number), nil
	case KindText:
		return parseAmountText(v.Text)
	default:
		return decimal.Zero, errors.New("empty amount")
	}
}

func parseAmountText(raw string) (decimal.Decimal, error) {
	s := amountNoise.Replace(strings.TrimSpace(raw))
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable amount %q", strings.TrimSpace(raw))
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
