package expense

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/homebase-app/homebase/event"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestSchedule(t *testing.T) {
	t.Run("monthly includes the end date", func(t *testing.T) {
		start := date(2026, time.January, 15)
		end := date(2026, time.April, 15)

		times, truncated, err := Schedule(start, FrequencyMonthly, &end, DefaultMaxOccurrences)
		if err != nil {
			t.Fatal(err)
		}
		if truncated {
			t.Error("series within the cap should not report truncation")
		}
		if len(times) != 4 {
			t.Fatalf("got %d occurrences, want 4", len(times))
		}
		if !times[0].Equal(start) {
			t.Errorf("first occurrence = %v, want the start date", times[0])
		}
		if !times[3].Equal(end) {
			t.Errorf("last occurrence = %v, want the end date", times[3])
		}
	})

	t.Run("end before a full step yields only the start", func(t *testing.T) {
		start := date(2026, time.January, 15)
		end := date(2026, time.January, 20)

		times, _, err := Schedule(start, FrequencyMonthly, &end, DefaultMaxOccurrences)
		if err != nil {
			t.Fatal(err)
		}
		if len(times) != 1 {
			t.Fatalf("got %d occurrences, want 1", len(times))
		}
	})

	t.Run("weekly steps seven days", func(t *testing.T) {
		start := date(2026, time.March, 2)
		end := date(2026, time.March, 16)

		times, _, err := Schedule(start, FrequencyWeekly, &end, DefaultMaxOccurrences)
		if err != nil {
			t.Fatal(err)
		}
		if len(times) != 3 {
			t.Fatalf("got %d occurrences, want 3", len(times))
		}
		if got := times[1].Sub(times[0]); got != 7*24*time.Hour {
			t.Errorf("step = %v, want 168h", got)
		}
	})

	t.Run("daily open-ended is capped and reports truncation", func(t *testing.T) {
		start := date(2026, time.January, 1)

		times, truncated, err := Schedule(start, FrequencyDaily, nil, DefaultMaxOccurrences)
		if err != nil {
			t.Fatal(err)
		}
		if len(times) != DefaultMaxOccurrences {
			t.Fatalf("got %d occurrences, want cap %d", len(times), DefaultMaxOccurrences)
		}
		if !truncated {
			t.Error("a cut-short series should report truncation")
		}
	})

	t.Run("series ending exactly at the cap is not truncated", func(t *testing.T) {
		start := date(2026, time.January, 1)
		end := date(2026, time.January, 4)

		times, truncated, err := Schedule(start, FrequencyDaily, &end, 4)
		if err != nil {
			t.Fatal(err)
		}
		if len(times) != 4 {
			t.Fatalf("got %d occurrences, want 4", len(times))
		}
		if truncated {
			t.Error("a series that ends at the cap naturally should not report truncation")
		}
	})

	t.Run("yearly open-ended defaults to one year", func(t *testing.T) {
		start := date(2026, time.June, 1)

		times, _, err := Schedule(start, FrequencyYearly, nil, DefaultMaxOccurrences)
		if err != nil {
			t.Fatal(err)
		}
		// start plus one step lands within the one-year horizon
		if len(times) != 2 {
			t.Fatalf("got %d occurrences, want 2", len(times))
		}
	})

	t.Run("invalid frequency", func(t *testing.T) {
		_, _, err := Schedule(date(2026, time.January, 1), "hourly", nil, DefaultMaxOccurrences)
		if !errors.Is(err, ErrBadFrequency) {
			t.Fatalf("err = %v, want ErrBadFrequency", err)
		}
	})
}

func TestLocationMarker(t *testing.T) {
	if got := LocationMarker(42); got != "EXPENSE:42" {
		t.Errorf("LocationMarker(42) = %q, want %q", got, "EXPENSE:42")
	}
}

type fakeCalendar struct {
	events      []event.Event
	attendeeIDs []int64
	deleted     []string
	createErr   error
}

func (f *fakeCalendar) CreateBatch(ctx context.Context, events []event.Event, attendeeIDs []int64) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.events = events
	f.attendeeIDs = attendeeIDs
	return len(events), nil
}

func (f *fakeCalendar) DeleteByLocation(ctx context.Context, location string) (int64, error) {
	f.deleted = append(f.deleted, location)
	return 2, nil
}

func TestExpanderExpand(t *testing.T) {
	freq := FrequencyWeekly
	end := date(2026, time.February, 1)
	notes := "pay on time"

	item := &ItemWithSplits{
		Item: Item{
			ID:                 7,
			Name:               "Cleaning service",
			TotalCost:          dec("80.00"),
			Notes:              &notes,
			CreatedAt:          date(2026, time.January, 11),
			IsRecurring:        true,
			RecurringFrequency: &freq,
			RecurringEndDate:   &end,
		},
		PaidByName: "Alice",
		GroupID:    3,
	}

	cal := &fakeCalendar{}
	x := NewExpander(cal, DefaultMaxOccurrences)

	created, err := x.Expand(context.Background(), item, []int64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if created != 4 {
		t.Fatalf("created = %d, want 4", created)
	}
	if len(cal.attendeeIDs) != 3 {
		t.Fatalf("attendees = %v, want 3 ids", cal.attendeeIDs)
	}

	first := cal.events[0]
	if first.Name != "Cleaning service - $80.00" {
		t.Errorf("title = %q", first.Name)
	}
	if first.Location == nil || *first.Location != "EXPENSE:7" {
		t.Errorf("location = %v, want EXPENSE:7", first.Location)
	}
	if first.Notes == nil || !strings.HasPrefix(*first.Notes, "Recurring expense paid by Alice") {
		t.Errorf("notes = %v", first.Notes)
	}
	if first.Notes == nil || !strings.HasSuffix(*first.Notes, "pay on time") {
		t.Errorf("notes should carry the item notes, got %v", first.Notes)
	}
	if first.GroupID == nil || *first.GroupID != 3 {
		t.Errorf("group id = %v, want 3", first.GroupID)
	}
	if first.End == nil || first.End.Sub(first.Start) != time.Hour {
		t.Errorf("occurrence duration should be one hour")
	}
}

func TestExpanderExpandSkipsNonRecurring(t *testing.T) {
	cal := &fakeCalendar{}
	x := NewExpander(cal, DefaultMaxOccurrences)

	item := &ItemWithSplits{Item: Item{ID: 1, Name: "One-off", CreatedAt: date(2026, time.May, 1)}}
	created, err := x.Expand(context.Background(), item, []int64{1})
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 || cal.events != nil {
		t.Fatalf("non-recurring item should create nothing, got %d", created)
	}
}

func TestExpanderRetract(t *testing.T) {
	cal := &fakeCalendar{}
	x := NewExpander(cal, DefaultMaxOccurrences)

	removed, err := x.Retract(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "EXPENSE:7" {
		t.Errorf("deleted markers = %v", cal.deleted)
	}
}
