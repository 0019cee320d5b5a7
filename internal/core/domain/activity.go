package domain

import "time"

// MinutesPerDay is the upper bound of a block's end minute. A block
// that runs to midnight ends at 1440, not 0 of the next day.
const MinutesPerDay = 24 * 60

// ActivityBlock is one merged activity window within a single day,
// expressed in minutes of that day
type ActivityBlock struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// DailyActiveTime holds the merged activity windows for one category
// on one calendar day. Blocks are non-overlapping, sorted ascending by
// start, and no two blocks are connected (they would have been merged).
type DailyActiveTime struct {
	Date   time.Time       `json:"date"`
	Blocks []ActivityBlock `json:"blocks"`
}

// TotalMinutes sums the block durations of the day
func (d DailyActiveTime) TotalMinutes() int {
	total := 0
	for _, b := range d.Blocks {
		total += b.EndMinute - b.StartMinute
	}
	return total
}

// WeeklyStatistics is the merged seven-day activity summary for one
// duration-bearing category. Days spans exactly 7 consecutive calendar
// dates ending at AnchorDate.
type WeeklyStatistics struct {
	Category   RecordType        `json:"category"`
	AnchorDate time.Time         `json:"anchor_date"`
	Days       []DailyActiveTime `json:"days"`
}
