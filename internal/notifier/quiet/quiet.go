// Package quiet decides whether delivery is currently suppressed for a
// recipient and when it may resume. Two independent rules apply: the fixed
// weekly Sabbath window and a per-recipient nightly window.
package quiet

import (
	"fmt"
	"time"
)

// Reason identifies which rule suppressed a delivery.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonSabbath Reason = "sabbath"
	ReasonNightly Reason = "quiet_hours"
)

const (
	sabbathStartHour = 16 // Friday
	sabbathEndHour   = 20 // Saturday

	// DefaultStartHour and DefaultEndHour apply when a recipient has no
	// quiet-hours configuration.
	DefaultStartHour = 22
	DefaultEndHour   = 8
)

// Check is the result of a quiet-window evaluation.
type Check struct {
	Suppressed bool
	Reason     Reason
	ResumeAt   time.Time
}

// Calculator evaluates quiet windows against a fixed timezone.
type Calculator struct {
	loc *time.Location
}

// NewCalculator loads the timezone the windows are defined in.
func NewCalculator(timezone string) (*Calculator, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Calculator{loc: loc}, nil
}

// Evaluate applies the Sabbath rule first (unconditional), then the
// recipient's nightly window. Nil hours fall back to the defaults.
func (c *Calculator) Evaluate(now time.Time, startHour, endHour *int) Check {
	if chk := c.Sabbath(now); chk.Suppressed {
		return chk
	}
	start, end := DefaultStartHour, DefaultEndHour
	if startHour != nil {
		start = *startHour
	}
	if endHour != nil {
		end = *endHour
	}
	return c.nightly(now, start, end)
}

// Sabbath checks the fixed Friday-evening-to-Saturday-evening window,
// independent of per-recipient settings.
func (c *Calculator) Sabbath(now time.Time) Check {
	local := now.In(c.loc)
	switch local.Weekday() {
	case time.Friday:
		if local.Hour() >= sabbathStartHour {
			resume := time.Date(local.Year(), local.Month(), local.Day()+1,
				sabbathEndHour, 0, 0, 0, c.loc)
			return Check{Suppressed: true, Reason: ReasonSabbath, ResumeAt: resume}
		}
	case time.Saturday:
		if local.Hour() < sabbathEndHour {
			resume := time.Date(local.Year(), local.Month(), local.Day(),
				sabbathEndHour, 0, 0, 0, c.loc)
			return Check{Suppressed: true, Reason: ReasonSabbath, ResumeAt: resume}
		}
	}
	return Check{}
}

func (c *Calculator) nightly(now time.Time, start, end int) Check {
	if start == end {
		return Check{}
	}
	local := now.In(c.loc)
	h := local.Hour()

	suppressed := false
	resumeDay := local.Day()
	if start > end {
		// Window wraps past midnight, e.g. 22:00-08:00.
		if h >= start {
			suppressed = true
			resumeDay++
		} else if h < end {
			suppressed = true
		}
	} else if h >= start && h < end {
		suppressed = true
	}

	if !suppressed {
		return Check{}
	}
	resume := time.Date(local.Year(), local.Month(), resumeDay, end, 0, 0, 0, c.loc)
	return Check{Suppressed: true, Reason: ReasonNightly, ResumeAt: resume}
}
