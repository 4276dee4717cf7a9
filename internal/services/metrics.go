package services

import "field-dispatch-service/internal/domain"

// Derived trip metrics. Everything here is pure and deterministic: no
// network, no store access, safe to recompute after every edit. Callers
// must re-invoke these after any stop-list or service-time mutation so the
// stored totals never go stale.

// ServiceMinutes sums the per-stop service time across the route.
func ServiceMinutes(stops []domain.SuggestedStop) float64 {
	var total float64
	for _, s := range stops {
		total += s.ServiceTimeMinutes
	}
	return total
}

// TotalMinutes combines travel and service time.
func TotalMinutes(travelMinutes, serviceMinutes float64) float64 {
	return travelMinutes + serviceMinutes
}

// Payout sums base rate plus misc fee for every stop whose work order
// resolves. Stops referencing a missing order contribute zero; they are a
// legitimate outcome of edits elsewhere, not an error.
func Payout(stops []domain.SuggestedStop, lookup func(id string) (domain.WorkOrder, bool)) float64 {
	var total float64
	for _, s := range stops {
		order, ok := lookup(s.WorkOrderID)
		if !ok {
			continue
		}
		total += order.TotalRate()
	}
	return total
}

// HourlyRate is payout per hour of total trip time. Zero minutes yields
// zero, never a division error; the rate is display-only.
func HourlyRate(payout, totalMinutes float64) float64 {
	if totalMinutes <= 0 {
		return 0
	}
	return payout / (totalMinutes / 60)
}

// PerMileRate is payout per mile driven, with the same zero guard.
func PerMileRate(payout, totalMiles float64) float64 {
	if totalMiles <= 0 {
		return 0
	}
	return payout / totalMiles
}
