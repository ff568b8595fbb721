package dossier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

func TestPaidRevenueCountsOnlyPaidBills(t *testing.T) {
	bills := []clinical.BilledService{
		{ServiceName: "Consultation", TotalCost: 100, Status: clinical.BillPaid},
		{ServiceName: "Lab Review", TotalCost: 50, Status: "Pending"},
	}
	assert.Equal(t, 100.0, PaidRevenue(bills))

	assert.Equal(t, 0.0, PaidRevenue(nil))
	assert.Equal(t, 0.0, PaidRevenue([]clinical.BilledService{{TotalCost: 75, Status: "Pending"}}))
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	vitals := []clinical.VitalsObservation{
		{RecordedAt: base, HeartRate: 70},
		{RecordedAt: base.Add(6 * time.Hour), HeartRate: 82},
	}
	got, ok := Latest(vitals)
	require.True(t, ok)
	assert.Equal(t, 82, got.HeartRate)
}

func TestTrendWindowKeepsChronologicalOrder(t *testing.T) {
	vitals := make([]clinical.VitalsObservation, 20)
	for i := range vitals {
		vitals[i] = clinical.VitalsObservation{HeartRate: 60 + i}
	}

	window := TrendWindow(vitals, ChartWindow)
	require.Len(t, window, ChartWindow)
	// Last 12 of 20, still oldest-first.
	assert.Equal(t, 68, window[0].HeartRate)
	assert.Equal(t, 79, window[len(window)-1].HeartRate)

	// Shorter series than the window comes back whole.
	short := TrendWindow(vitals[:5], ChartWindow)
	assert.Len(t, short, 5)

	assert.Nil(t, TrendWindow(vitals, 0))
	assert.Nil(t, TrendWindow(nil, ChartWindow))
}

func TestRecentTimelineReversesNewestFirst(t *testing.T) {
	entries := []clinical.DiagnosisRecord{
		{Diagnosis: "first"},
		{Diagnosis: "second"},
		{Diagnosis: "third"},
	}

	recent := RecentTimeline(entries, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Diagnosis)
	assert.Equal(t, "second", recent[1].Diagnosis)

	all := RecentTimeline(entries, 10)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Diagnosis)
	assert.Equal(t, "first", all[2].Diagnosis)

	assert.Nil(t, RecentTimeline(entries, 0))
}
