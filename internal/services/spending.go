package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/models"
)

// sixMonthsDays is the length of the past_6_months window.
const sixMonthsDays = 182

// SpendingTotals are the seven overlapping bucket sums.
type SpendingTotals struct {
	Today       decimal.Decimal
	ThisWeek    decimal.Decimal
	ThisMonth   decimal.Decimal
	ThisQuarter decimal.Decimal
	Past6Months decimal.Decimal
	ThisYear    decimal.Decimal
	AllTime     decimal.Decimal
}

// MarshalJSON writes the totals as JSON numbers.
func (t SpendingTotals) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]json.Number{
		"today":         json.Number(t.Today.String()),
		"this_week":     json.Number(t.ThisWeek.String()),
		"this_month":    json.Number(t.ThisMonth.String()),
		"this_quarter":  json.Number(t.ThisQuarter.String()),
		"past_6_months": json.Number(t.Past6Months.String()),
		"this_year":     json.Number(t.ThisYear.String()),
		"all_time":      json.Number(t.AllTime.String()),
	})
}

// UnmarshalJSON reads totals written by MarshalJSON.
func (t *SpendingTotals) UnmarshalJSON(data []byte) error {
	var raw map[string]decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = SpendingTotals{
		Today:       raw["today"],
		ThisWeek:    raw["this_week"],
		ThisMonth:   raw["this_month"],
		ThisQuarter: raw["this_quarter"],
		Past6Months: raw["past_6_months"],
		ThisYear:    raw["this_year"],
		AllTime:     raw["all_time"],
	}
	return nil
}

// SpendingSummary is the aggregator result. Empty is true when the user has no expenses.
type SpendingSummary struct {
	Totals   SpendingTotals `json:"totals"`
	Empty    bool           `json:"empty"`
	Count    int            `json:"expense_count"`
	Date     string         `json:"date"`
	Timezone string         `json:"timezone"`
}

// ExpenseEntry is the part of an expense the aggregator reads.
type ExpenseEntry struct {
	ID     string
	Date   string
	Amount decimal.Decimal
}

// SpendingCache stores computed summaries. Entries are keyed by the user's generation, which
// invalidation bumps, so a summary computed before a mutation is written under a generation
// nobody reads again. Implementations treat failures as misses.
type SpendingCache interface {
	SpendingGeneration(ctx context.Context, userID string) (int64, bool)
	GetSpending(ctx context.Context, userID string, gen int64, tz, date string) (*SpendingSummary, bool)
	SetSpending(ctx context.Context, userID string, gen int64, tz, date string, s *SpendingSummary)
}

// SpendingAggregator computes spending totals over a user's expense collection.
type SpendingAggregator struct {
	store docstore.Store
	cache SpendingCache
	log   *logger.Logger
	now   func() time.Time
}

func NewSpendingAggregator(store docstore.Store, cache SpendingCache, log *logger.Logger) *SpendingAggregator {
	if log == nil {
		log = logger.Nop()
	}
	return &SpendingAggregator{
		store: store,
		cache: cache,
		log:   log.WithComponent(logger.ComponentSpending),
		now:   time.Now,
	}
}

// WithClock replaces the time source.
func (a *SpendingAggregator) WithClock(now func() time.Time) *SpendingAggregator {
	a.now = now
	return a
}

// Summarize computes the totals for userID with calendar days taken in loc.
func (a *SpendingAggregator) Summarize(ctx context.Context, userID string, loc *time.Location) (SpendingSummary, error) {
	if userID == "" {
		return SpendingSummary{}, ErrMissingUserID
	}
	if loc == nil {
		loc = time.Local
	}
	today := calendarDay(a.now().In(loc))
	dateKey := today.Format("2006-01-02")

	// generation is read before the expenses so a concurrent invalidation wins
	var (
		gen    int64
		cached bool
	)
	if a.cache != nil {
		gen, cached = a.cache.SpendingGeneration(ctx, userID)
	}
	if cached {
		if s, ok := a.cache.GetSpending(ctx, userID, gen, loc.String(), dateKey); ok {
			return *s, nil
		}
	}

	v, err := a.store.Get(ctx, docstore.CollectionPath(userID, models.Expenses.Name))
	summary := SpendingSummary{Date: dateKey, Timezone: loc.String()}
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		summary.Empty = true
		summary.Totals = zeroTotals()
		return summary, nil
	case err != nil:
		a.log.ErrorContext(ctx, "failed to fetch expenses", logger.FieldUserID, userID, logger.FieldError, err)
		return SpendingSummary{}, &DependencyError{Op: "fetch expenses", Err: err}
	}

	entries, err := expenseEntries(docstore.Children(v))
	if err != nil {
		a.log.WarnContext(ctx, "unreadable expense", logger.FieldUserID, userID, logger.FieldError, err)
		return SpendingSummary{}, err
	}
	totals, err := AggregateSpending(entries, today)
	if err != nil {
		a.log.WarnContext(ctx, "unreadable expense", logger.FieldUserID, userID, logger.FieldError, err)
		return SpendingSummary{}, err
	}
	summary.Totals = totals
	summary.Count = len(entries)
	summary.Empty = len(entries) == 0

	if cached {
		a.cache.SetSpending(ctx, userID, gen, loc.String(), dateKey, &summary)
	}
	return summary, nil
}

// AggregateSpending sums entries into the seven buckets relative to today. Dates are read in
// today's location. An unparsable date fails the whole computation.
func AggregateSpending(entries []ExpenseEntry, today time.Time) (SpendingTotals, error) {
	t := zeroTotals()
	loc := today.Location()
	today = calendarDay(today)

	weekStart := today.AddDate(0, 0, -mondayOffset(today.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7)
	sixMonthsAgo := today.AddDate(0, 0, -sixMonthsDays)
	year, month := today.Year(), today.Month()
	quarter := quarterOf(month)

	sorted := make([]ExpenseEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, e := range sorted {
		d, err := models.ParseDate(e.Date, loc)
		if err != nil {
			return SpendingTotals{}, &InvalidExpenseError{ExpenseID: e.ID, Reason: err.Error()}
		}
		if e.Amount.IsNegative() {
			return SpendingTotals{}, &InvalidExpenseError{ExpenseID: e.ID, Reason: "negative amount"}
		}

		t.AllTime = t.AllTime.Add(e.Amount)
		if d.Equal(today) {
			t.Today = t.Today.Add(e.Amount)
		}
		if !d.Before(weekStart) && d.Before(weekEnd) {
			t.ThisWeek = t.ThisWeek.Add(e.Amount)
		}
		if d.Year() == year && d.Month() == month {
			t.ThisMonth = t.ThisMonth.Add(e.Amount)
		}
		if d.Year() == year && quarterOf(d.Month()) == quarter {
			t.ThisQuarter = t.ThisQuarter.Add(e.Amount)
		}
		if !d.Before(sixMonthsAgo) && !d.After(today) {
			t.Past6Months = t.Past6Months.Add(e.Amount)
		}
		if d.Year() == year {
			t.ThisYear = t.ThisYear.Add(e.Amount)
		}
	}
	return t, nil
}

// expenseEntries reads date and amount from stored expense records.
func expenseEntries(items map[string]any) ([]ExpenseEntry, error) {
	entries := make([]ExpenseEntry, 0, len(items))
	for id, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, &InvalidExpenseError{ExpenseID: id, Reason: "not a record"}
		}
		date, _ := rec["date"].(string)
		amount, err := decimalAmount(rec["amount"])
		if err != nil {
			return nil, &InvalidExpenseError{ExpenseID: id, Reason: err.Error()}
		}
		entries = append(entries, ExpenseEntry{ID: id, Date: date, Amount: amount})
	}
	return entries, nil
}

func decimalAmount(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		if _, err := strconv.ParseFloat(n, 64); err != nil {
			return decimal.Decimal{}, fmt.Errorf("amount %q is not a number", n)
		}
		return decimal.NewFromString(n)
	case nil:
		return decimal.Decimal{}, errors.New("missing amount")
	default:
		return decimal.Decimal{}, fmt.Errorf("amount has type %T", v)
	}
}

func zeroTotals() SpendingTotals {
	z := decimal.Zero
	return SpendingTotals{Today: z, ThisWeek: z, ThisMonth: z, ThisQuarter: z, Past6Months: z, ThisYear: z, AllTime: z}
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}
