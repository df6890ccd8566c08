package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(fmt.Sprintf("register calendardate validation: %v", err))
	}
	return v
}

// likelihoodRequest is the POST /likelihood body. A missing vars field
// selects every configured condition; an explicit empty list selects none.
type likelihoodRequest struct {
	Lat        *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon        *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Date       string   `json:"date" validate:"required,calendardate"`
	WindowDays *int     `json:"window_days" validate:"omitempty,gte=0"`
	Units      string   `json:"units" validate:"omitempty,max=16"`
	Vars       []string `json:"vars" validate:"omitempty,dive,oneof=hot cold wind wet"`
}

// toDomain converts a validated request. Defaults fill the optional fields.
func (r likelihoodRequest) toDomain(defaultWindow int, defaultConditions []domain.Condition) (domain.Request, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return domain.Request{}, err
	}

	req := domain.Request{
		Lat:        *r.Lat,
		Lon:        *r.Lon,
		Date:       date,
		WindowDays: defaultWindow,
		Units:      "si",
		Conditions: defaultConditions,
	}
	if r.WindowDays != nil {
		req.WindowDays = *r.WindowDays
	}
	if r.Units != "" {
		req.Units = r.Units
	}
	if r.Vars != nil {
		req.Conditions = make([]domain.Condition, 0, len(r.Vars))
		for _, name := range r.Vars {
			if c, ok := domain.ParseCondition(name); ok {
				req.Conditions = append(req.Conditions, c)
			}
		}
	}
	return req, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Only the
// calendar day is kept.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, errors.New("date must be YYYY-MM-DD or RFC 3339")
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// fieldErrors flattens validator output for the 422 response body.
func fieldErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, fieldError{Field: field, Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
