//go:build unit

package service

import (
	"testing"
	"time"

	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
}

func itemWithDates(start, end *time.Time) model.RoadmapItem {
	return model.RoadmapItem{
		ID:        uuid.New(),
		Bucket:    "now",
		StartDate: start,
		EndDate:   end,
		Status:    model.RoadmapScheduled,
	}
}

func ptr[T any](v T) *T { return &v }

func TestNormalizeTimeline_Empty(t *testing.T) {
	timeline := NormalizeTimeline(nil)

	assert.Empty(t, timeline.Lanes)
	assert.Empty(t, timeline.Unscheduled)
	assert.True(t, timeline.AxisStart.IsZero())
}

func TestNormalizeTimeline_UndatedItemsAreSeparated(t *testing.T) {
	items := []model.RoadmapItem{
		itemWithDates(nil, nil),
		itemWithDates(ptr(day(1)), ptr(day(11))),
	}

	timeline := NormalizeTimeline(items)

	require.Len(t, timeline.Lanes, 1)
	require.Len(t, timeline.Unscheduled, 1)
	assert.Equal(t, items[0].ID, timeline.Unscheduled[0].ID)
}

func TestNormalizeTimeline_MissingEndpointBorrowsTheOther(t *testing.T) {
	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
	}{
		{name: "only start", start: ptr(day(5))},
		{name: "only end", end: ptr(day(5))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := NormalizeTimeline([]model.RoadmapItem{itemWithDates(tt.start, tt.end)})

			require.Len(t, timeline.Lanes, 1)
			assert.Equal(t, day(5), timeline.Lanes[0].Start)
			assert.Equal(t, day(5), timeline.Lanes[0].End)
		})
	}
}

func TestNormalizeTimeline_InvertedRangeIsSwapped(t *testing.T) {
	timeline := NormalizeTimeline([]model.RoadmapItem{
		itemWithDates(ptr(day(20)), ptr(day(10))),
	})

	require.Len(t, timeline.Lanes, 1)
	assert.Equal(t, day(10), timeline.Lanes[0].Start)
	assert.Equal(t, day(20), timeline.Lanes[0].End)
}

func TestNormalizeTimeline_ZeroSpanWidensAxisByOneDay(t *testing.T) {
	timeline := NormalizeTimeline([]model.RoadmapItem{
		itemWithDates(ptr(day(5)), ptr(day(5))),
	})

	assert.Equal(t, day(5), timeline.AxisStart)
	assert.Equal(t, day(6), timeline.AxisEnd)

	require.Len(t, timeline.Lanes, 1)
	assert.Equal(t, 0.0, timeline.Lanes[0].LeftPct)
	assert.Equal(t, minLaneWidthPct, timeline.Lanes[0].WidthPct)
}

func TestNormalizeTimeline_Layout(t *testing.T) {
	timeline := NormalizeTimeline([]model.RoadmapItem{
		itemWithDates(ptr(day(6)), ptr(day(11))),
		itemWithDates(ptr(day(1)), ptr(day(6))),
	})

	assert.Equal(t, day(1), timeline.AxisStart)
	assert.Equal(t, day(11), timeline.AxisEnd)

	require.Len(t, timeline.Lanes, 2)

	// Lanes come back sorted by start date.
	assert.Equal(t, day(1), timeline.Lanes[0].Start)
	assert.InDelta(t, 0.0, timeline.Lanes[0].LeftPct, 1e-9)
	assert.InDelta(t, 50.0, timeline.Lanes[0].WidthPct, 1e-9)

	assert.Equal(t, day(6), timeline.Lanes[1].Start)
	assert.InDelta(t, 50.0, timeline.Lanes[1].LeftPct, 1e-9)
	assert.InDelta(t, 50.0, timeline.Lanes[1].WidthPct, 1e-9)
}

func TestNormalizeTimeline_ShortItemKeepsMinimumWidth(t *testing.T) {
	timeline := NormalizeTimeline([]model.RoadmapItem{
		itemWithDates(ptr(day(1)), ptr(day(2))),
		itemWithDates(ptr(day(1)), ptr(day(101))),
	})

	require.Len(t, timeline.Lanes, 2)

	// A one-day item on a hundred-day axis is under the visibility floor.
	assert.Equal(t, minLaneWidthPct, timeline.Lanes[0].WidthPct)
	assert.InDelta(t, 100.0, timeline.Lanes[1].WidthPct, 1e-9)
}
