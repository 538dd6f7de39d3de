package bill

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// ValidationError maps JSON field paths to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "bill: invalid: " + strings.Join(parts, "; ")
}

// Validator checks bills before they are rendered or stored.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a validator with the bill-specific rules registered.
func NewValidator() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]validator.Func{
		"bill_type": func(fl validator.FieldLevel) bool {
			return Type(fl.Field().String()).Valid()
		},
		"tax_option": func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case TaxNone, TaxGST, TaxTIN:
				return true
			}
			return false
		},
		"phone": func(fl validator.FieldLevel) bool {
			digits := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(fl.Field().String())
			return phonePattern.MatchString(digits)
		},
		"pan": func(fl validator.FieldLevel) bool {
			return panPattern.MatchString(strings.ToUpper(fl.Field().String()))
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("bill: register %s validator: %w", tag, err)
		}
	}

	v.RegisterStructValidation(validateBill, Bill{})
	v.RegisterStructValidation(validateFuel, Fuel{})
	v.RegisterStructValidation(validateRent, Rent{})

	return &Validator{v: v}, nil
}

// Validate returns a *ValidationError describing every invalid field, or nil.
func (val *Validator) Validate(b Bill) error {
	err := val.v.Struct(b)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		fields[path] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func validateBill(sl validator.StructLevel) {
	b := sl.Current().Interface().(Bill)
	switch b.Type {
	case TypeFuel:
		if b.Fuel == nil {
			sl.ReportError(b.Fuel, "fuel", "Fuel", "required", "")
		}
	case TypeRent:
		if b.Rent == nil {
			sl.ReportError(b.Rent, "rent", "Rent", "required", "")
		}
	}
}

func validateFuel(sl validator.StructLevel) {
	f := sl.Current().Interface().(Fuel)
	if (f.TaxOption == TaxGST || f.TaxOption == TaxTIN) && strings.TrimSpace(f.TaxNumber) == "" {
		sl.ReportError(f.TaxNumber, "taxNumber", "TaxNumber", "required", "")
	}
}

func validateRent(sl validator.StructLevel) {
	r := sl.Current().Interface().(Rent)
	start, errStart := time.Parse(time.DateOnly, r.PeriodStart)
	end, errEnd := time.Parse(time.DateOnly, r.PeriodEnd)
	if errStart == nil && errEnd == nil && end.Before(start) {
		sl.ReportError(r.PeriodEnd, "periodEnd", "PeriodEnd", "date_after", "periodStart")
	}
	if r.ShowPAN && strings.TrimSpace(r.PAN) == "" {
		sl.ReportError(r.PAN, "panNumber", "PAN", "required", "")
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "gt":
		return fmt.Sprintf("Value must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Value must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "datetime":
		if fe.Param() == "15:04" {
			return "Invalid time, expected HH:MM"
		}
		return "Invalid date, expected YYYY-MM-DD"
	case "date_after":
		return "End date must be after start date"
	case "phone":
		return "Please enter a valid phone number"
	case "pan":
		return "Please enter a valid PAN number"
	case "tax_option":
		return fmt.Sprintf("Must be one of %q, %q or %q", TaxNone, TaxGST, TaxTIN)
	case "bill_type":
		return "Unknown bill type"
	default:
		return fmt.Sprintf("Failed %q validation", fe.Tag())
	}
}
