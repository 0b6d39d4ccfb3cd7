package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

// TimestampLayout is the second-precision layout used for every stored date-time.
const TimestampLayout = "2006-01-02 15:04:05"

const dateLayout = "2006-01-02"

// Record is implemented by every per-user entity.
type Record interface {
	OwnerID() string
	SetOwnerID(id string)
	Validate() error
}

// Keyed records carry a natural key that must be unique within the user's collection.
type Keyed interface {
	UniqueKey() string
}

// Defaulter fills optional fields before a record is stored.
type Defaulter interface {
	ApplyDefaults(now time.Time)
}

// Patch is implemented by the partial-update payload of each entity.
type Patch interface {
	Document() (patch.Document, error)
}

// Timestamp formats t the way stored date-times are written.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseDate reads the calendar date of a stored date or date-time, ignoring the time of day.
// Accepted forms: 2006-01-02, "2006-01-02 15:04:05[.999999]" and RFC 3339.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

func validDate(field, value string) error {
	if _, err := ParseDate(value, time.UTC); err != nil {
		return &utils.ValidationError{Field: field, Message: field + " must be a date (YYYY-MM-DD)"}
	}
	return nil
}

func optionalDate(field string, o patch.Optional[string]) error {
	if v, ok := o.Get(); ok {
		return validDate(field, v)
	}
	return nil
}

func optionalAmount(field string, o patch.Optional[float64]) error {
	if v, ok := o.Get(); ok {
		return utils.NonNegative(field, v)
	}
	return nil
}

func optionalRequired(field string, o patch.Optional[string]) error {
	if v, ok := o.Get(); ok {
		return utils.Required(field, v)
	}
	return nil
}
