package core

import (
	"math"
	"sort"
)

// DefaultRollupDays is the length of the dashboard activity chart.
const DefaultRollupDays = 7

// DayPoints is one bar of the daily rollup.
type DayPoints struct {
	Date   Date  `json:"date"`
	Points int64 `json:"points"`
}

// CurrentBalance returns accrued activity points minus redeemed costs.
// The result does not depend on record order.
func CurrentBalance(activities []ActivityRecord, redemptions []RedemptionRecord) (int64, error) {
	earned, err := TotalPoints(activities)
	if err != nil {
		return 0, err
	}
	spent, err := TotalCost(redemptions)
	if err != nil {
		return 0, err
	}
	return earned - spent, nil
}

// TotalPoints sums the points of activity records.
func TotalPoints(activities []ActivityRecord) (int64, error) {
	var total int64
	for _, a := range activities {
		if a.Points < 0 {
			return 0, DataIntegrityError("activity %q on %s has negative points %d", a.Activity, a.Date, a.Points)
		}
		if total > math.MaxInt64-a.Points {
			return 0, DataIntegrityError("activity points overflow")
		}
		total += a.Points
	}
	return total, nil
}

// TotalCost sums the cost of redemption records.
func TotalCost(redemptions []RedemptionRecord) (int64, error) {
	var total int64
	for _, r := range redemptions {
		if r.Cost < 0 {
			return 0, DataIntegrityError("redemption %q on %s has negative cost %d", r.Reward, r.Date, r.Cost)
		}
		if total > math.MaxInt64-r.Cost {
			return 0, DataIntegrityError("redemption cost overflow")
		}
		total += r.Cost
	}
	return total, nil
}

// LastDays returns the inclusive window of n days ending on today.
// LastDays(2024-01-07, 7) is 2024-01-01 .. 2024-01-07.
func LastDays(today Date, n int) (start, end Date) {
	if n < 1 {
		n = 1
	}
	return today.AddDays(-(n - 1)), today
}

// DailyRollup sums activity points per calendar day over [start, end].
// The result has exactly one entry per day, ascending, with zero for days
// without activity. Records outside the window are ignored.
func DailyRollup(activities []ActivityRecord, start, end Date) ([]DayPoints, error) {
	if err := start.Validate(); err != nil {
		return nil, err
	}
	if err := end.Validate(); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, &ValidationError{Field: "window", Reason: "end date " + end.String() + " is before start date " + start.String()}
	}

	byDay := make(map[string]int64)
	for _, a := range activities {
		if a.Points < 0 {
			return nil, DataIntegrityError("activity %q on %s has negative points %d", a.Activity, a.Date, a.Points)
		}
		if a.Date.Before(start) || a.Date.After(end) {
			continue
		}
		byDay[a.Date.String()] += a.Points
	}

	var out []DayPoints
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, DayPoints{Date: d, Points: byDay[d.String()]})
	}
	return out, nil
}

// FilterActivities keeps records of person; "" keeps everything.
func FilterActivities(records []ActivityRecord, person Person) []ActivityRecord {
	if person == "" {
		return records
	}
	out := make([]ActivityRecord, 0, len(records))
	for _, r := range records {
		if r.Person == person {
			out = append(out, r)
		}
	}
	return out
}

// FilterRedemptions keeps records of person; "" keeps everything.
func FilterRedemptions(records []RedemptionRecord, person Person) []RedemptionRecord {
	if person == "" {
		return records
	}
	out := make([]RedemptionRecord, 0, len(records))
	for _, r := range records {
		if r.Person == person {
			out = append(out, r)
		}
	}
	return out
}

// SortActivitiesNewestFirst orders records by date descending. Records are
// expected in insertion order; same-day records end up newest-insert first.
func SortActivitiesNewestFirst(records []ActivityRecord) {
	reverseActivities(records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

// SortRedemptionsNewestFirst is SortActivitiesNewestFirst for redemptions.
func SortRedemptionsNewestFirst(records []RedemptionRecord) {
	reverseRedemptions(records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

func reverseActivities(s []ActivityRecord) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseRedemptions(s []RedemptionRecord) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
