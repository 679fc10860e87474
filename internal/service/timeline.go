package service

import (
	"sort"
	"time"

	"github.com/Grindin247/decision-system/pkg/model"
)

// minLaneWidthPct keeps very short items visible on the rendered axis.
const minLaneWidthPct = 2.0

// TimelineLane is one positioned item on the timeline axis. Percentages are
// relative to the axis span.
type TimelineLane struct {
	Item     model.RoadmapItem `json:"item"`
	Start    time.Time         `json:"start_date"`
	End      time.Time         `json:"end_date"`
	LeftPct  float64           `json:"left_pct"`
	WidthPct float64           `json:"width_pct"`
}

// Timeline is the normalized layout of a household's roadmap: a shared axis,
// positioned lanes, and the items that have no dates at all.
type Timeline struct {
	AxisStart   time.Time           `json:"axis_start"`
	AxisEnd     time.Time           `json:"axis_end"`
	Lanes       []TimelineLane      `json:"lanes"`
	Unscheduled []model.RoadmapItem `json:"unscheduled"`
}

// NormalizeTimeline lays out roadmap items on a shared axis.
//
// An item missing one endpoint borrows the other; inverted ranges are
// swapped. The axis spans the earliest start to the latest end, widened by
// one day when every item collapses onto a single instant so widths stay
// finite. Items with neither date are reported separately.
func NormalizeTimeline(items []model.RoadmapItem) Timeline {
	var timeline Timeline

	type dated struct {
		item       model.RoadmapItem
		start, end time.Time
	}

	scheduled := make([]dated, 0, len(items))

	for _, item := range items {
		if item.StartDate == nil && item.EndDate == nil {
			timeline.Unscheduled = append(timeline.Unscheduled, item)
			continue
		}

		var start, end time.Time

		switch {
		case item.StartDate == nil:
			start, end = *item.EndDate, *item.EndDate
		case item.EndDate == nil:
			start, end = *item.StartDate, *item.StartDate
		default:
			start, end = *item.StartDate, *item.EndDate
		}

		if start.After(end) {
			start, end = end, start
		}

		scheduled = append(scheduled, dated{item: item, start: start, end: end})
	}

	if len(scheduled) == 0 {
		return timeline
	}

	axisStart, axisEnd := scheduled[0].start, scheduled[0].end

	for _, d := range scheduled[1:] {
		if d.start.Before(axisStart) {
			axisStart = d.start
		}

		if d.end.After(axisEnd) {
			axisEnd = d.end
		}
	}

	if !axisEnd.After(axisStart) {
		axisEnd = axisStart.AddDate(0, 0, 1)
	}

	span := axisEnd.Sub(axisStart)
	timeline.AxisStart = axisStart
	timeline.AxisEnd = axisEnd
	timeline.Lanes = make([]TimelineLane, 0, len(scheduled))

	for _, d := range scheduled {
		left := float64(d.start.Sub(axisStart)) / float64(span) * 100

		width := float64(d.end.Sub(d.start)) / float64(span) * 100
		if width < minLaneWidthPct {
			width = minLaneWidthPct
		}

		timeline.Lanes = append(timeline.Lanes, TimelineLane{
			Item:     d.item,
			Start:    d.start,
			End:      d.end,
			LeftPct:  left,
			WidthPct: width,
		})
	}

	sort.SliceStable(timeline.Lanes, func(i, j int) bool {
		return timeline.Lanes[i].Start.Before(timeline.Lanes[j].Start)
	})

	return timeline
}
