package dossier

import "github.com/auralis-health/clinical-console/internal/clinical"

// Chart windows used by the dashboard. Simple array slices over the
// backend-ordered series, not statistical aggregation.
const (
	ChartWindow = 12
	PulseWindow = 24
)

// PaidRevenue sums total_cost over bills marked Paid.
func PaidRevenue(bills []clinical.BilledService) float64 {
	var sum float64
	for _, b := range bills {
		if b.Status == clinical.BillPaid {
			sum += b.TotalCost
		}
	}
	return sum
}

// Latest returns the last observation of the series, treated as the
// patient's "current" vitals for headline display.
func Latest(vitals []clinical.VitalsObservation) (clinical.VitalsObservation, bool) {
	if len(vitals) == 0 {
		return clinical.VitalsObservation{}, false
	}
	return vitals[len(vitals)-1], true
}

// TrendWindow returns the last n observations in original chronological
// order.
func TrendWindow(vitals []clinical.VitalsObservation, n int) []clinical.VitalsObservation {
	if n <= 0 || len(vitals) == 0 {
		return nil
	}
	if len(vitals) <= n {
		return vitals
	}
	return vitals[len(vitals)-n:]
}

// RecentTimeline returns the last n entries newest-first, for the compact
// preview widget. This is the only client-side reordering.
func RecentTimeline[T any](entries []T, n int) []T {
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = entries[len(entries)-1-i]
	}
	return out
}
