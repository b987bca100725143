package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/types"
)

// StatisticsFilter narrows the ledger scan. Bounds are inclusive; a nil
// bound means unbounded on that side.
type StatisticsFilter struct {
	Start    *time.Time
	End      *time.Time
	Currency string
}

// ParsePeriod builds a filter from RFC 3339 date strings. Empty strings
// leave the corresponding bound open.
func ParsePeriod(startDate, endDate, currency string) (StatisticsFilter, error) {
	var filter StatisticsFilter
	filter.Currency = currency
	if startDate != "" {
		t, err := time.Parse(time.RFC3339, startDate)
		if err != nil {
			return filter, fmt.Errorf("invalid start_date %q: %w", startDate, apperr.ErrInvalidInput)
		}
		filter.Start = &t
	}
	if endDate != "" {
		t, err := time.Parse(time.RFC3339, endDate)
		if err != nil {
			return filter, fmt.Errorf("invalid end_date %q: %w", endDate, apperr.ErrInvalidInput)
		}
		filter.End = &t
	}
	return filter, nil
}

// Statistics aggregates the payment ledger. Pending and authorized
// payments count toward the totals but toward neither success nor
// failure, so SuccessfulPayments+FailedPayments can be below
// TotalPayments.
type Statistics struct {
	TotalPayments      int
	TotalAmount        decimal.Decimal
	SuccessfulPayments int
	FailedPayments     int
	SuccessRate        float64
	TotalRefunds       decimal.Decimal
	NetAmount          decimal.Decimal
}

// PaymentStatistics scans the ledger and aggregates every payment that
// falls inside the filter.
func (s *PaymentService) PaymentStatistics(ctx context.Context, filter StatisticsFilter) (Statistics, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		TotalAmount:  decimal.Zero,
		TotalRefunds: decimal.Zero,
	}
	for _, p := range payments {
		if !matches(p, filter) {
			continue
		}
		stats.TotalPayments++
		stats.TotalAmount = stats.TotalAmount.Add(p.Amount)
		stats.TotalRefunds = stats.TotalRefunds.Add(p.RefundedAmount)
		switch p.Status {
		case types.PaymentStatusCompleted:
			stats.SuccessfulPayments++
		case types.PaymentStatusFailed:
			stats.FailedPayments++
		}
	}

	if stats.TotalPayments > 0 {
		rate := float64(stats.SuccessfulPayments) / float64(stats.TotalPayments) * 100
		stats.SuccessRate = roundTo(rate, 2)
	}
	stats.NetAmount = stats.TotalAmount.Sub(stats.TotalRefunds)
	return stats, nil
}

func matches(p *types.Payment, filter StatisticsFilter) bool {
	if filter.Start != nil && p.CreatedAt.Before(*filter.Start) {
		return false
	}
	if filter.End != nil && p.CreatedAt.After(*filter.End) {
		return false
	}
	if filter.Currency != "" && p.Currency != filter.Currency {
		return false
	}
	return true
}

func roundTo(v float64, places int) float64 {
	return decimal.NewFromFloat(v).Round(int32(places)).InexactFloat64()
}
