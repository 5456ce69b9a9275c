package validate

import (
	"time"

	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

// DateBuilder exposes chaining options for date validators.
type DateBuilder interface {
	Validator[coerce.Date]
	// FromDatetime enables the DateFromDatetime fallback: input that is not a
	// plain date is read as a datetime that must fall exactly on midnight.
	FromDatetime() DateBuilder
	Strict(strict bool) DateBuilder
}

// Date returns a calendar date validator.
func Date() DateBuilder { return &dateValidator{} }

type dateValidator struct {
	fallback bool
	strict   *bool
}

func (v *dateValidator) FromDatetime() DateBuilder      { v.fallback = true; return v }
func (v *dateValidator) Strict(strict bool) DateBuilder { v.strict = boolPtr(strict); return v }
func (v *dateValidator) Name() string                   { return "date" }
func (v *dateValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	return &js.Schema{Type: "string", Format: "date"}, nil
}

func (v *dateValidator) Validate(st *State, in coerce.Input) (coerce.Date, error) {
	strict := st.strict(v.strict)
	d, err := in.AsDate(strict)
	if err == nil || !v.fallback || coerce.IsFatal(err) {
		return d, err
	}
	return coerce.DateFromDatetime(in, strict)
}

// TimeBuilder exposes chaining options for time-of-day validators.
type TimeBuilder interface {
	Validator[coerce.TimeOfDay]
	Strict(strict bool) TimeBuilder
}

// Time returns a time-of-day validator.
func Time() TimeBuilder { return &timeValidator{} }

type timeValidator struct{ strict *bool }

func (v *timeValidator) Strict(strict bool) TimeBuilder { v.strict = boolPtr(strict); return v }
func (v *timeValidator) Name() string                   { return "time" }
func (v *timeValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	return &js.Schema{Type: "string", Format: "time"}, nil
}
func (v *timeValidator) Validate(st *State, in coerce.Input) (coerce.TimeOfDay, error) {
	return in.AsTime(st.strict(v.strict))
}

// DatetimeBuilder exposes chaining options for datetime validators.
type DatetimeBuilder interface {
	Validator[time.Time]
	Strict(strict bool) DatetimeBuilder
}

// Datetime returns a datetime validator.
func Datetime() DatetimeBuilder { return &datetimeValidator{} }

type datetimeValidator struct{ strict *bool }

func (v *datetimeValidator) Strict(strict bool) DatetimeBuilder { v.strict = boolPtr(strict); return v }
func (v *datetimeValidator) Name() string                       { return "datetime" }
func (v *datetimeValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	return &js.Schema{Type: "string", Format: "date-time"}, nil
}
func (v *datetimeValidator) Validate(st *State, in coerce.Input) (time.Time, error) {
	return in.AsDatetime(st.strict(v.strict))
}

// TimedeltaBuilder exposes chaining options for duration validators.
type TimedeltaBuilder interface {
	Validator[time.Duration]
	Strict(strict bool) TimedeltaBuilder
}

// Timedelta returns a duration validator.
func Timedelta() TimedeltaBuilder { return &timedeltaValidator{} }

type timedeltaValidator struct{ strict *bool }

func (v *timedeltaValidator) Strict(strict bool) TimedeltaBuilder {
	v.strict = boolPtr(strict)
	return v
}
func (v *timedeltaValidator) Name() string { return "timedelta" }
func (v *timedeltaValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	return &js.Schema{Type: "string", Format: "duration"}, nil
}
func (v *timedeltaValidator) Validate(st *State, in coerce.Input) (time.Duration, error) {
	return in.AsTimedelta(st.strict(v.strict))
}
