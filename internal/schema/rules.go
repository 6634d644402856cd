package schema

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report input column names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("col"); name != "" {
			return name
		}
		return fld.Name
	})

	// Amount rules (gte=0, gt=0) compare decimals as floats; exactness is not
	// needed for sign checks.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterStructValidation(sourceEntryRules, model.SourceEntry{})
	v.RegisterStructValidation(adjustmentRules, model.AdjustmentLine{})
	return v
}

func sourceEntryRules(sl validator.StructLevel) {
	e := sl.Current().Interface().(model.SourceEntry)
	if e.PaidAmount.GreaterThan(e.Total()) {
		sl.ReportError(e.PaidAmount, "PaidAmount", "PaidAmount", "paid_le_total", e.Total().StringFixed(2))
	}
	if e.PaidAmount.IsPositive() && e.PaymentDate.IsZero() {
		sl.ReportError(e.PaymentDate, "PaymentDate", "PaymentDate", "payment_date_required", "")
	}
	if !e.PaymentDate.IsZero() && e.PaymentDate.Before(e.InvoiceDate) {
		sl.ReportError(e.PaymentDate, "PaymentDate", "PaymentDate", "not_before_invoice", "")
	}
	if e.IsPaid() && e.PaidAmount.IsZero() && e.Total().IsPositive() {
		sl.ReportError(e.PaidAmount, "PaidAmount", "PaidAmount", "paid_status_amount", "")
	}
}

func adjustmentRules(sl validator.StructLevel) {
	l := sl.Current().Interface().(model.AdjustmentLine)
	if l.Debit.IsPositive() == l.Credit.IsPositive() {
		sl.ReportError(l.Debit, "Debit", "Debit", "one_side", "")
	}
}

// checkStruct runs the struct rules on v and converts violations into row
// failures.
func checkStruct(table string, row int, v any) []apperrors.RowFailure {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperrors.RowFailure{{Table: table, Row: row, Reason: err.Error()}}
	}
	failures := make([]apperrors.RowFailure, 0, len(verrs))
	for _, fe := range verrs {
		failures = append(failures, apperrors.RowFailure{
			Table:  table,
			Row:    row,
			Column: fe.Field(),
			Reason: describe(fe),
		})
	}
	return failures
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing required value"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be negative"
	case "oneof":
		return fmt.Sprintf("%v is not one of [%s]", fe.Value(), fe.Param())
	case "gtefield":
		return "must not be before " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	case "paid_le_total":
		return "paid amount exceeds invoice total " + fe.Param()
	case "payment_date_required":
		return "paid amount set without a payment date"
	case "not_before_invoice":
		return "payment date is before the invoice date"
	case "paid_status_amount":
		return "status is paid but paid amount is zero"
	case "one_side":
		return "exactly one of Debit or Credit must be positive"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
