package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AnshRaj112/brift-backend/internal/models"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

const assistantPreamble = `You are a helpful, context-aware budget management assistant in the Brift app.
Answer in at most 100 words, clearly and supportively. Break the question down step by step,
use the spending context below when it is relevant, give a final recommendation, and support
it with a short calculation showing the financial effect for the user.`

// DashboardService serves the dashboard endpoints.
type DashboardService struct {
	entities   *EntityService
	users      *UserService
	spending   *SpendingAggregator
	assistant  Assistant
	defaultLoc *time.Location
}

// NewDashboardService builds the service. assistant may be nil, in which case Ask reports
// ErrUnavailable.
func NewDashboardService(entities *EntityService, users *UserService, spending *SpendingAggregator, assistant Assistant, defaultLoc *time.Location) *DashboardService {
	if defaultLoc == nil {
		defaultLoc = time.Local
	}
	return &DashboardService{
		entities:   entities,
		users:      users,
		spending:   spending,
		assistant:  assistant,
		defaultLoc: defaultLoc,
	}
}

// ResolveLocation picks the request timezone, then the user's setting, then the default.
func (d *DashboardService) ResolveLocation(ctx context.Context, userID, requested string) (*time.Location, error) {
	name := strings.TrimSpace(requested)
	if name == "" && d.users != nil {
		tz, err := d.users.Timezone(ctx, userID)
		if err != nil {
			return nil, err
		}
		name = tz
	}
	if name == "" {
		return d.defaultLoc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// TotalSpending returns the seven spending totals for userID.
func (d *DashboardService) TotalSpending(ctx context.Context, userID, timezone string) (SpendingSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return SpendingSummary{}, ErrMissingUserID
	}
	loc, err := d.ResolveLocation(ctx, userID, timezone)
	if err != nil {
		return SpendingSummary{}, err
	}
	return d.spending.Summarize(ctx, userID, loc)
}

// Budgets returns the user's budgets keyed by id.
func (d *DashboardService) Budgets(ctx context.Context, userID string) (map[string]any, error) {
	return d.entities.FetchAll(ctx, models.Budgets, userID)
}

// Transactions returns the user's expenses, newest first.
func (d *DashboardService) Transactions(ctx context.Context, userID string) ([]map[string]any, error) {
	items, err := d.entities.FetchAll(ctx, models.Expenses, userID)
	if errors.Is(err, ErrNotFound) {
		return []map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(items))
	for _, v := range items {
		if rec, ok := v.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, _ := out[i]["date"].(string)
		dj, _ := out[j]["date"].(string)
		if di != dj {
			return di > dj
		}
		ii, _ := out[i]["id"].(string)
		ij, _ := out[j]["id"].(string)
		return ii < ij
	})
	return out, nil
}

// Ask forwards the question to the assistant with a short spending context.
func (d *DashboardService) Ask(ctx context.Context, userID, query string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrMissingUserID
	}
	if err := utils.Required("query", query); err != nil {
		return "", err
	}
	if d.assistant == nil {
		return "", fmt.Errorf("assistant: %w", ErrUnavailable)
	}

	var sb strings.Builder
	sb.WriteString(assistantPreamble)
	if s, err := d.TotalSpending(ctx, userID, ""); err == nil && !s.Empty {
		t := s.Totals
		fmt.Fprintf(&sb, "\n\nSpending context (%s): today %s, this week %s, this month %s, past 6 months %s, this year %s.",
			s.Date, t.Today, t.ThisWeek, t.ThisMonth, t.Past6Months, t.ThisYear)
	}
	fmt.Fprintf(&sb, "\n\nQuestion:\n%q\n", query)
	return d.assistant.Answer(ctx, sb.String())
}
