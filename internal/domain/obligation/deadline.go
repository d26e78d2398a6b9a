package obligation

import (
	"time"

	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// maxPeriodicityMonths bounds recurring rules; anything longer is treated as
// corrupt data rather than a real schedule.
const maxPeriodicityMonths = 1200

// ComputeDueDate advances referenceDate by periodicityMonths calendar months.
// When the target month is shorter than the reference day-of-month the result
// is clamped to the target month's last day (2025-01-31 + 1 month is
// 2025-02-28). A nil periodicity means the obligation is not recurring and
// nil is returned. The result is a UTC date at midnight.
func ComputeDueDate(referenceDate time.Time, periodicityMonths *int) *time.Time {
	if periodicityMonths == nil {
		return nil
	}
	y, m, d := referenceDate.Date()
	months := int(m) - 1 + *periodicityMonths
	year := y + floorDiv(months, 12)
	month := time.Month(months - floorDiv(months, 12)*12 + 1)

	if last := daysIn(year, month); d > last {
		d = last
	}
	due := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	return &due
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// daysIn returns the number of days in month of year.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysUntil returns the calendar-day distance from today to due, comparing
// civil dates only. Negative values are overdue.
func DaysUntil(due, today time.Time) int {
	return int(civilDate(due).Sub(civilDate(today)).Hours() / 24)
}

// civilDate strips the time of day, keeping the date as seen in t's location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassifySeverity maps a due date onto a tier using the policy thresholds.
// info is never returned; it is assigned during aggregation.
func ClassifySeverity(dueDate, today time.Time, policy Policy) Tier {
	return tierForDays(DaysUntil(dueDate, today), policy)
}

func tierForDays(days int, p Policy) Tier {
	switch {
	case days < 0:
		return TierExpired
	case days < p.UrgentDays:
		return TierUrgent
	case days < p.WarningDays:
		return TierWarning
	case days < p.AttentionDays:
		return TierAttention
	default:
		return TierOK
	}
}

// ResolveDueDate picks the effective deadline of e.
//
// A recurring rule with a reference date wins over an explicit due date. A
// rule without a reference date falls back to the explicit date. Without
// either the entity is unscheduled and nil is returned with no error.
// Corrupt inputs yield a CalculationError.
func ResolveDueDate(e TrackedEntity) (*time.Time, error) {
	ref := e.Ref().String()
	if !e.Kind.IsValid() {
		return nil, errors.NewCalculationError(ref, "unknown entity kind")
	}
	if e.ReferenceDate != nil && !plausibleDate(*e.ReferenceDate) {
		return nil, errors.NewCalculationError(ref, "malformed reference date")
	}
	if e.DueDate != nil && !plausibleDate(*e.DueDate) {
		return nil, errors.NewCalculationError(ref, "malformed due date")
	}

	if e.PeriodicityMonths != nil {
		n := *e.PeriodicityMonths
		if n <= 0 || n > maxPeriodicityMonths {
			return nil, errors.NewCalculationError(ref, "unsupported periodicity")
		}
		if e.ReferenceDate != nil {
			return ComputeDueDate(*e.ReferenceDate, e.PeriodicityMonths), nil
		}
	}
	if e.DueDate != nil {
		due := civilDate(*e.DueDate)
		return &due, nil
	}
	return nil, nil
}

// plausibleDate rejects zero values and dates outside a sane calendar range,
// which is how unparseable imported dates reach the engine.
func plausibleDate(t time.Time) bool {
	return !t.IsZero() && t.Year() >= 1900 && t.Year() <= 2200
}

//Personal.AI order the ending
