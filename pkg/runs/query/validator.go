package query

import (
	"fmt"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/runs"
)

const (
	// DefaultLimit is the number of records returned when Limit is 0.
	DefaultLimit = 100

	// MaxLimit is the largest Limit accepted.
	MaxLimit = 10000
)

// ValidStatuses are the statuses a record can carry.
var ValidStatuses = map[string]bool{
	bridge.StatusReady:     true,
	bridge.StatusInvalid:   true,
	bridge.StatusBusy:      true,
	bridge.StatusTimeout:   true,
	bridge.StatusTransport: true,
	bridge.StatusContract:  true,
	bridge.StatusCanceled:  true,
	bridge.StatusError:     true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate returns a *runs.QueryError if q has invalid parameters.
func Validate(q *runs.Query) error {
	if q.Limit < 0 {
		return runs.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return runs.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return runs.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return runs.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return runs.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}
	if q.Status != "" && !ValidStatuses[q.Status] {
		return runs.NewQueryError(q, fmt.Errorf("invalid status: %s", q.Status))
	}
	return nil
}

// ApplyDefaults fills the default limit and sort order.
func ApplyDefaults(q *runs.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
