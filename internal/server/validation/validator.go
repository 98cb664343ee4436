package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// EmailChecker reports whether an email address is already registered.
type EmailChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// maxPrice is the largest value a NUMERIC(12,2) column holds.
const maxPrice = 9999999999.99

var (
	lowerRe = regexp.MustCompile(`[a-z]`)
	upperRe = regexp.MustCompile(`[A-Z]`)
	digitRe = regexp.MustCompile(`\d`)
	// decimal notation with optional exponent: "10", "10.", ".5", "1e3"
	numberRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

type lookupErrKey struct{}

// lookupErr collects the first store error raised inside a rule; validator
// rule functions cannot return errors themselves.
type lookupErr struct {
	mu  sync.Mutex
	err error
}

func (l *lookupErr) set(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		l.err = err
	}
}

type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the application rules registered. emails
// backs the unique_email rule.
func New(emails EmailChecker) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return lowerRe.MatchString(s) && upperRe.MatchString(s) && digitRe.MatchString(s)
	})

	// bcrypt only accepts inputs up to 72 bytes, so this counts bytes
	// where the built-in max counts runes.
	_ = v.RegisterValidation("max_bytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})

	_ = v.RegisterValidation("number", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !numberRe.MatchString(s) {
			return false
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	})

	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		f, err := strconv.ParseFloat(fl.Field().String(), 64)
		return err == nil && f >= 0 && f <= maxPrice
	})

	_ = v.RegisterValidationCtx("unique_email", func(ctx context.Context, fl validator.FieldLevel) bool {
		if emails == nil {
			return true
		}
		exists, err := emails.ExistsByEmail(ctx, fl.Field().String())
		if err != nil {
			if le, ok := ctx.Value(lookupErrKey{}).(*lookupErr); ok {
				le.set(err)
			}
			return true
		}
		return !exists
	})

	return &Validator{v: v}
}

// Struct validates s. It returns *Errors for rule failures, a plain error if
// a rule could not reach its backing store, or nil.
func (val *Validator) Struct(ctx context.Context, s any) error {
	le := &lookupErr{}
	err := val.v.StructCtx(context.WithValue(ctx, lookupErrKey{}, le), s)

	le.mu.Lock()
	storeErr := le.err
	le.mu.Unlock()
	if storeErr != nil {
		return fmt.Errorf("validation lookup: %w", storeErr)
	}

	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Errors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "unique_email":
		return fmt.Sprintf("The %s has already been taken.", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
	case "password":
		return fmt.Sprintf("The %s format is invalid.", field)
	case "max_bytes":
		return fmt.Sprintf("The %s must not be greater than %s characters.", field, fe.Param())
	case "number":
		return fmt.Sprintf("The %s must be a number.", field)
	case "price":
		return fmt.Sprintf("The %s must be between 0 and %.2f.", field, maxPrice)
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}
