package dossier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

type fakePatientAPI struct {
	mu        sync.Mutex
	profile   clinical.Patient
	vitals    []clinical.VitalsObservation
	diagnoses []clinical.DiagnosisRecord
	bills     []clinical.BilledService

	errs  map[Resource]error
	delay time.Duration

	fetches   int
	lastBill  clinical.BilledService
	billAdded bool
}

func (f *fakePatientAPI) wait(ctx context.Context) error {
	if f.delay == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakePatientAPI) failure(res Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[res]
}

func (f *fakePatientAPI) GetPatient(ctx context.Context, id string) (*clinical.Patient, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.failure(ResourceProfile); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	p := f.profile
	p.ID = id
	return &p, nil
}

func (f *fakePatientAPI) ListVitals(ctx context.Context, _ string) ([]clinical.VitalsObservation, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.failure(ResourceVitals); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clinical.VitalsObservation(nil), f.vitals...), nil
}

func (f *fakePatientAPI) ListDiagnoses(ctx context.Context, _ string) ([]clinical.DiagnosisRecord, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.failure(ResourceDiagnoses); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clinical.DiagnosisRecord(nil), f.diagnoses...), nil
}

func (f *fakePatientAPI) ListBills(ctx context.Context, _ string) ([]clinical.BilledService, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.failure(ResourceBills); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clinical.BilledService(nil), f.bills...), nil
}

func (f *fakePatientAPI) AddVitals(_ context.Context, _ string, obs clinical.VitalsObservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vitals = append(f.vitals, obs)
	return nil
}

func (f *fakePatientAPI) AddDiagnosis(_ context.Context, _ string, rec clinical.DiagnosisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diagnoses = append(f.diagnoses, rec)
	return nil
}

func (f *fakePatientAPI) AddBill(_ context.Context, _ string, bill clinical.BilledService) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bills = append(f.bills, bill)
	f.lastBill = bill
	f.billAdded = true
	return nil
}

func (f *fakePatientAPI) UpdatePatient(_ context.Context, id string, upd clinical.PatientUpdate) (*clinical.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if upd.MedicalHistory != nil {
		f.profile.MedicalHistory = *upd.MedicalHistory
	}
	p := f.profile
	p.ID = id
	return &p, nil
}

func newFakeAPI() *fakePatientAPI {
	return &fakePatientAPI{
		profile:   clinical.Patient{Name: "Ada Osei", Age: 54, Ward: "Ward B"},
		vitals:    []clinical.VitalsObservation{{HeartRate: 72}, {HeartRate: 80}},
		diagnoses: []clinical.DiagnosisRecord{{Diagnosis: "hypertension"}},
		bills:     []clinical.BilledService{{ServiceName: "Checkup", TotalCost: 120, Status: clinical.BillPaid}},
		errs:      make(map[Resource]error),
	}
}

func TestViewLoadAllOrNothing(t *testing.T) {
	api := newFakeAPI()
	view := NewView(context.Background(), api, "p1")
	defer view.Close()

	snap, err := view.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Ada Osei", snap.Profile.Name)
	assert.Len(t, snap.Vitals, 2)
	assert.Len(t, snap.Diagnoses, 1)
	assert.Len(t, snap.Bills, 1)
	assert.False(t, snap.FetchedAt.IsZero())

	// A second Load serves the cached snapshot without re-fetching.
	fetched := api.fetches
	again, err := view.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, fetched, api.fetches)
}

func TestViewAllOrNothingNeverPartial(t *testing.T) {
	api := newFakeAPI()
	api.errs[ResourceBills] = errors.New("failed to fetch bills")

	view := NewView(context.Background(), api, "p1")
	defer view.Close()

	snap, err := view.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)
	// The three successful reads were discarded along with the failure.
	assert.Nil(t, view.Snapshot())
}

func TestViewBestEffortKeepsPartialResults(t *testing.T) {
	api := newFakeAPI()
	vitalsErr := errors.New("failed to fetch vitals")
	api.errs[ResourceVitals] = vitalsErr

	view := NewView(context.Background(), api, "p1", WithPolicy(PolicyBestEffort))
	defer view.Close()

	snap, err := view.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.NotNil(t, snap.Profile)
	assert.Len(t, snap.Bills, 1)
	assert.Nil(t, snap.Vitals)
	require.Contains(t, snap.Errors, ResourceVitals)
	assert.ErrorIs(t, snap.Errors[ResourceVitals], vitalsErr)
}

func TestViewCloseDropsInFlightResult(t *testing.T) {
	api := newFakeAPI()
	api.delay = 50 * time.Millisecond

	view := NewView(context.Background(), api, "p1")

	done := make(chan struct{})
	var loadErr error
	go func() {
		defer close(done)
		_, loadErr = view.Load(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	view.Close()
	<-done

	require.Error(t, loadErr)
	assert.Nil(t, view.Snapshot())

	_, err := view.Load(context.Background())
	assert.ErrorIs(t, err, ErrViewClosed)
}

func TestViewCallerContextCancelsFanOut(t *testing.T) {
	api := newFakeAPI()
	api.delay = time.Second

	view := NewView(context.Background(), api, "p1")
	defer view.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := view.Load(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestViewMutationsRefreshSnapshot(t *testing.T) {
	api := newFakeAPI()
	view := NewView(context.Background(), api, "p1")
	defer view.Close()

	_, err := view.Load(context.Background())
	require.NoError(t, err)

	snap, err := view.AddVitals(context.Background(), clinical.VitalsObservation{HeartRate: 95})
	require.NoError(t, err)
	require.Len(t, snap.Vitals, 3)
	latest, ok := Latest(snap.Vitals)
	require.True(t, ok)
	assert.Equal(t, 95, latest.HeartRate)

	snap, err = view.AddDiagnosis(context.Background(), clinical.DiagnosisRecord{Diagnosis: "anemia"})
	require.NoError(t, err)
	assert.Len(t, snap.Diagnoses, 2)

	snap, err = view.UpdateMedicalHistory(context.Background(), "allergic to penicillin")
	require.NoError(t, err)
	assert.Equal(t, "allergic to penicillin", snap.Profile.MedicalHistory)
}

func TestViewAddBillRecomputesTotal(t *testing.T) {
	api := newFakeAPI()
	view := NewView(context.Background(), api, "p1")
	defer view.Close()

	snap, err := view.AddBill(context.Background(), clinical.BilledService{
		ServiceName: "Surgery Follow-up",
		UnitCost:    80,
		Quantity:    3,
		TotalCost:   1, // caller-supplied totals are ignored
	})
	require.NoError(t, err)

	require.True(t, api.billAdded)
	assert.Equal(t, 240.0, api.lastBill.TotalCost)
	assert.Len(t, snap.Bills, 2)
}

func TestViewConcurrentWritesBothLand(t *testing.T) {
	api := newFakeAPI()
	view := NewView(context.Background(), api, "p1")
	defer view.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := view.AddVitals(context.Background(), clinical.VitalsObservation{HeartRate: 101})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := view.AddDiagnosis(context.Background(), clinical.DiagnosisRecord{Diagnosis: "migraine"})
		assert.NoError(t, err)
	}()
	wg.Wait()

	snap, err := view.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Vitals, 3)
	assert.Len(t, snap.Diagnoses, 2)
}
