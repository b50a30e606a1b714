// Package codec parses and formats the optional scalar fields of a note:
// the numeric target and the due date.
package codec

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/catatan/internal/apperr"
	"github.com/starford/catatan/internal/models"
)

// EditLayout is the local date-time form used by edit fields.
const EditLayout = "2006-01-02T15:04"

// dueDateLayouts are the accepted local date-time inputs, most common first.
var dueDateLayouts = []string{EditLayout, "2006-01-02T15:04:05"}

// EncodeTarget parses a target input. Blank input is absent; anything but a
// non-negative integer is a validation error.
func EncodeTarget(input string) (models.Optional[*big.Int], error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return models.None[*big.Int](), nil
	}
	if err := validation.Validate(s, is.Digit); err != nil {
		return models.None[*big.Int](), apperr.Invalid("target", err)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return models.None[*big.Int](), apperr.Invalid("target", fmt.Errorf("not an integer: %q", s))
	}
	return models.Some(n), nil
}

// FormatTarget renders a target for an edit field; absent is blank.
func FormatTarget(target models.Optional[*big.Int]) string {
	n, ok := target.Get()
	if !ok || n == nil {
		return ""
	}
	return n.String()
}

// Due dates are stored as int64 nanoseconds; instants outside this range
// cannot be represented.
var (
	minDueDate = time.Unix(0, math.MinInt64)
	maxDueDate = time.Unix(0, math.MaxInt64)
)

// EncodeDueDate interprets input as wall-clock time in loc and returns the
// instant as nanoseconds since epoch, at millisecond precision. Blank input
// is absent.
func EncodeDueDate(input string, loc *time.Location) (models.Optional[int64], error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return models.None[int64](), nil
	}
	for _, layout := range dueDateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if t.Before(minDueDate) || t.After(maxDueDate) {
			return models.None[int64](), apperr.Invalid("dueDate", fmt.Errorf("must be between %d and %d", minDueDate.Year()+1, maxDueDate.Year()-1))
		}
		return models.Some(t.UnixMilli() * int64(time.Millisecond)), nil
	}
	return models.None[int64](), apperr.Invalid("dueDate", errors.New("must be a date-time like 2006-01-02T15:04"))
}

// DecodeDueDateForEdit renders ns as a minute-precision local date-time
// suitable for re-editing. It round-trips with EncodeDueDate.
func DecodeDueDateForEdit(ns int64, loc *time.Location) string {
	return time.Unix(0, ns).In(loc).Format(EditLayout)
}

// DueDisplay is a due date rendered for a list view.
type DueDisplay struct {
	Formatted string `json:"formatted"`
	Overdue   bool   `json:"overdue"`
}

// DecodeDueDateForDisplay formats ns for display and reports whether it lies
// before now. Overdue is computed per call and must not be cached.
func DecodeDueDateForDisplay(ns int64, now time.Time, loc *time.Location) DueDisplay {
	t := time.Unix(0, ns)
	return DueDisplay{
		Formatted: formatShort(t.In(loc)),
		Overdue:   t.Before(now),
	}
}

// FormatTimestamp renders a creation timestamp with the long month name.
func FormatTimestamp(ns int64, loc *time.Location) string {
	t := time.Unix(0, ns).In(loc)
	return fmt.Sprintf("%d %s %d pukul %02d.%02d",
		t.Day(), longMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

func formatShort(t time.Time) string {
	return fmt.Sprintf("%d %s %d, %02d.%02d",
		t.Day(), shortMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// Indonesian month names (id-ID).
var (
	longMonths = [12]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
	shortMonths = [12]string{
		"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
		"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
	}
)
