package model

import (
	"fmt"
	"math"
	"time"
)

// Period is a named relative lower bound for aggregation queries.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// LowerBound resolves the period relative to now. The second return is
// false for PeriodAll, which applies no bound. Week starts on the most
// recent Sunday at 00:00.
func (p Period) LowerBound(now time.Time) (time.Time, bool) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodDay:
		return startOfDay, true
	case PeriodWeek:
		return startOfDay.AddDate(0, 0, -int(now.Weekday())), true
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case PeriodYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// Stats is the dashboard aggregate over packages created within a period.
type Stats struct {
	TotalPackages     int64   `json:"totalPackages"`
	PendingPackages   int64   `json:"pendingPackages"`
	InTransitPackages int64   `json:"inTransitPackages"`
	DeliveredPackages int64   `json:"deliveredPackages"`
	TotalRevenue      float64 `json:"totalRevenue"`
	PaidRevenue       float64 `json:"paidRevenue"`
	DeliveryRate      float64 `json:"deliveryRate"`
}

// ComputeDeliveryRate returns delivered/total as a percentage rounded to
// two decimals, and 0 when total is zero.
func ComputeDeliveryRate(delivered, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(delivered)/float64(total)*100*100) / 100
}
