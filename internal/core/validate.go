package core

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	minLedgerYear = 1900
	maxLedgerYear = 2200
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Amounts are validated as plain numbers.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("ledgerdate", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok || t.IsZero() {
			return false
		}
		return t.Year() >= minLedgerYear && t.Year() <= maxLedgerYear
	})
}

// fieldErrors maps struct fields to the sentinel returned when they fail.
var fieldErrors = map[string]error{
	"ID":     ErrMissingID,
	"Amount": ErrInvalidAmount,
	"Type":   ErrInvalidType,
	"Date":   ErrInvalidDate,
}

func validateRecord(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		sentinel, ok := fieldErrors[fe.StructField()]
		if !ok {
			sentinel = ErrInvalidRecord
		}
		errs = append(errs, fmt.Errorf("%w: field %s failed %q", sentinel, fe.StructField(), fe.Tag()))
	}
	return errors.Join(errs...)
}

// Rejection records a transaction dropped by Sanitize and why.
type Rejection struct {
	Transaction Transaction
	Err         error
}

// Sanitize splits txns into records the analyzers can consume and records that
// fail validation. The input slice is not modified.
func Sanitize(txns []Transaction) (valid []Transaction, rejected []Rejection) {
	valid = make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			rejected = append(rejected, Rejection{Transaction: t, Err: err})
			continue
		}
		valid = append(valid, t)
	}
	return valid, rejected
}
