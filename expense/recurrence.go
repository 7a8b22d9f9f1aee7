package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/homebase-app/homebase/event"
)

// DefaultMaxOccurrences bounds the fan-out of one expansion. Exceeding the
// cap truncates the series; the created count tells the caller it happened.
const DefaultMaxOccurrences = 100

// defaultHorizon is how far an open-ended recurrence is expanded.
const defaultHorizon = 365 * 24 * time.Hour

const occurrenceDuration = time.Hour

// LocationMarker is the machine-readable back-reference stored in an
// occurrence's location field, tying it to its source expense item.
func LocationMarker(itemID int64) string {
	return fmt.Sprintf("EXPENSE:%d", itemID)
}

// Schedule returns the occurrence times for a recurrence: the start itself,
// then one step per frequency until the end date (inclusive). A nil end
// defaults to one year after start. At most cap times are returned; the bool
// reports whether the series was cut short by the cap, as opposed to ending
// at it naturally.
func Schedule(start time.Time, freq Frequency, end *time.Time, cap int) ([]time.Time, bool, error) {
	if !freq.Valid() {
		return nil, false, ErrBadFrequency
	}

	until := start.Add(defaultHorizon)
	if end != nil {
		until = *end
	}

	var times []time.Time
	for current := start; !current.After(until); {
		if len(times) == cap {
			return times, true, nil
		}
		times = append(times, current)
		switch freq {
		case FrequencyDaily:
			current = current.AddDate(0, 0, 1)
		case FrequencyWeekly:
			current = current.AddDate(0, 0, 7)
		case FrequencyMonthly:
			current = current.AddDate(0, 1, 0)
		case FrequencyYearly:
			current = current.AddDate(1, 0, 0)
		}
	}

	return times, false, nil
}

// CalendarStore is the slice of the event store the expander writes through.
type CalendarStore interface {
	CreateBatch(ctx context.Context, events []event.Event, attendeeIDs []int64) (int, error)
	DeleteByLocation(ctx context.Context, location string) (int64, error)
}

// Expander materializes a recurring expense as calendar occurrences and
// removes them again when the expense is deleted.
type Expander struct {
	calendar CalendarStore
	max      int
}

func NewExpander(calendar CalendarStore, maxOccurrences int) *Expander {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Expander{calendar: calendar, max: maxOccurrences}
}

// Expand creates one calendar occurrence per scheduled time, registering
// every group member as an attendee. All occurrences are written in one
// transaction; the returned count is how many were actually created, so a
// caller can detect cap truncation.
func (x *Expander) Expand(ctx context.Context, item *ItemWithSplits, memberIDs []int64) (int, error) {
	if !item.IsRecurring || item.RecurringFrequency == nil {
		return 0, nil
	}

	times, truncated, err := Schedule(item.CreatedAt, *item.RecurringFrequency, item.RecurringEndDate, x.max)
	if err != nil {
		return 0, err
	}
	if truncated {
		slog.Warn("recurrence series truncated at occurrence cap",
			"item_id", item.ID,
			"cap", x.max,
		)
	}

	title := fmt.Sprintf("%s - $%s", item.Name, item.TotalCost.StringFixed(2))
	notes := fmt.Sprintf("Recurring expense paid by %s", item.PaidByName)
	if item.Notes != nil && *item.Notes != "" {
		notes += "\n\n" + *item.Notes
	}
	location := LocationMarker(item.ID)
	groupID := item.GroupID

	events := make([]event.Event, len(times))
	for i, start := range times {
		end := start.Add(occurrenceDuration)
		events[i] = event.Event{
			Name:     title,
			Start:    start,
			End:      &end,
			Location: &location,
			Notes:    &notes,
			GroupID:  &groupID,
		}
	}

	return x.calendar.CreateBatch(ctx, events, memberIDs)
}

// Retract deletes every occurrence tagged with the item's location marker.
// Zero matches is not an error.
func (x *Expander) Retract(ctx context.Context, itemID int64) (int64, error) {
	return x.calendar.DeleteByLocation(ctx, LocationMarker(itemID))
}
