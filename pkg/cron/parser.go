package cron

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidCronExpression = errors.New("invalid cron expression")
	ErrInvalidTimezone       = errors.New("invalid timezone")
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule is a standard five field cron expression bound to a location.
// Descriptors such as "@every 30s" and "@hourly" are accepted too.
type Schedule struct {
	expr string
	spec cron.Schedule
	loc  *time.Location
}

// Parse parses expr and binds it to timezone. An empty timezone means UTC.
func Parse(expr, timezone string) (*Schedule, error) {
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	spec, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCronExpression, err)
	}

	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTimezone, err)
		}
	}

	return &Schedule{
		expr: expr,
		spec: spec,
		loc:  loc,
	}, nil
}

// Next returns the first activation strictly after from.
func (s *Schedule) Next(from time.Time) time.Time {
	if s == nil || s.spec == nil {
		return time.Time{}
	}

	return s.spec.Next(from.In(s.loc))
}

func (s *Schedule) String() string {
	return s.expr
}
