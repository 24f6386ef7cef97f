package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPageSize = 16
	MaxPageSize     = 100
)

// Query holds the inbound request parameters.
type Query struct {
	Type      string `query:"type" validate:"required,oneof=movie tv"`
	Tag       string `query:"tag" validate:"required"`
	PageSize  int    `query:"pageSize"`
	PageStart int    `query:"pageStart"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

// ParseQuery builds a clamped, validated Query from raw parameter values.
// Unparsable page values fall back to their defaults.
func ParseQuery(typ, tag, pageSize, pageStart string) (Query, error) {
	q := Query{
		Type:      typ,
		Tag:       tag,
		PageSize:  atoiDefault(pageSize, DefaultPageSize),
		PageStart: atoiDefault(pageStart, 0),
	}
	q.clamp()
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

func (q *Query) clamp() {
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.PageStart < 0 {
		q.PageStart = 0
	}
}

// Validate checks the required and enumerated parameters. Every failing
// parameter is reported.
func (q Query) Validate() error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingParameter, fe.Field()))
		case "oneof":
			errs = append(errs, fmt.Errorf("%w: %s must be one of [%s]", ErrInvalidParameter, fe.Field(), fe.Param()))
		default:
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidParameter, fe.Field()))
		}
	}
	return errors.Join(errs...)
}

// IsTop reports whether the query selects the scraped top-250 listing.
func (q Query) IsTop() bool {
	return q.Tag == TopTag
}

// CacheKey identifies the upstream page a query resolves to.
func (q Query) CacheKey() string {
	if q.IsTop() {
		return fmt.Sprintf("catalog:%s:%d", TopTag, q.PageStart)
	}
	return fmt.Sprintf("catalog:%s:%s:%d:%d", q.Type, q.Tag, q.PageSize, q.PageStart)
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
