package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

func newTestServer(t *testing.T) (*clinical.Client, *MemStore) {
	t.Helper()
	store := NewMemStore()
	srv := httptest.NewServer(NewRouter(RouterConfig{
		Store:   store,
		Log:     zerolog.Nop(),
		Env:     "test",
		Version: "test",
	}))
	t.Cleanup(srv.Close)
	return clinical.New(srv.URL), store
}

func seedPair(t *testing.T, client *clinical.Client) (clinical.Patient, clinical.Doctor) {
	t.Helper()
	ctx := context.Background()

	p, err := client.AdmitPatient(ctx, clinical.Patient{
		Name: "Ada Osei", Age: 54, Gender: "female", BloodType: "O+", Ward: "Ward B", Status: "Stable",
	})
	require.NoError(t, err)

	d, err := client.CreateDoctor(ctx, clinical.Doctor{
		Name: "Dr. Lin Bao", Specialty: "Cardiology", Department: "Ward B",
	})
	require.NoError(t, err)
	return *p, *d
}

func TestBookingAppearsOnDoctorRoster(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	patient, doctor := seedPair(t, client)

	s, err := client.BookSession(ctx, clinical.BookingRequest{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Date:      "2026-03-01",
		Time:      "09:00",
		Type:      "Consultation",
	})
	require.NoError(t, err)
	assert.Equal(t, clinical.StatusPending, s.Status)
	assert.Equal(t, "Ada Osei", s.PatientName)
	assert.Equal(t, "Dr. Lin Bao", s.DoctorName)

	roster, err := client.ListSessions(ctx, doctor.ID, clinical.RoleDoctor)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, s.ID, roster[0].ID)
	assert.Equal(t, clinical.StatusPending, roster[0].Status)

	// Role scoping: a different doctor sees an empty roster.
	other, err := client.ListSessions(ctx, "someone-else", clinical.RoleDoctor)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDoubleBookingRejected(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	patient, doctor := seedPair(t, client)

	book := func() (*clinical.Session, error) {
		return client.BookSession(ctx, clinical.BookingRequest{
			PatientID: patient.ID,
			DoctorID:  doctor.ID,
			Date:      "2026-03-01",
			Time:      "09:00",
			Type:      "Consultation",
		})
	}

	_, err := book()
	require.NoError(t, err)

	_, err = book()
	var apiErr *clinical.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	// A cancelled session frees the slot.
	roster, err := client.ListSessions(ctx, doctor.ID, clinical.RoleDoctor)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	reason := "patient unavailable"
	_, err = client.UpdateSession(ctx, roster[0].ID, clinical.SessionUpdate{
		Status:             clinical.StatusCancelled,
		CancellationReason: &reason,
	})
	require.NoError(t, err)

	_, err = book()
	assert.NoError(t, err)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	patient, doctor := seedPair(t, client)

	const attempts = 16
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := client.BookSession(ctx, clinical.BookingRequest{
				PatientID: patient.ID,
				DoctorID:  doctor.ID,
				Date:      "2026-03-01",
				Time:      "09:00",
			})
			results <- err
		}()
	}

	var won int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			won++
		} else {
			var apiErr *clinical.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		}
	}
	assert.Equal(t, 1, won)

	roster, err := client.ListSessions(ctx, doctor.ID, clinical.RoleDoctor)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestBookingValidation(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	patient, doctor := seedPair(t, client)

	var apiErr *clinical.APIError

	_, err := client.BookSession(ctx, clinical.BookingRequest{PatientID: patient.ID, DoctorID: doctor.ID})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = client.BookSession(ctx, clinical.BookingRequest{
		PatientID: "ghost", DoctorID: doctor.ID, Date: "2026-03-01", Time: "09:00",
	})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestCancellationLifecycle(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	patient, doctor := seedPair(t, client)

	s, err := client.BookSession(ctx, clinical.BookingRequest{
		PatientID: patient.ID, DoctorID: doctor.ID, Date: "2026-03-02", Time: "10:00", Type: "Checkup",
	})
	require.NoError(t, err)

	// Cancelling without a reason is rejected.
	_, err = client.UpdateSession(ctx, s.ID, clinical.SessionUpdate{Status: clinical.StatusCancelled})
	var apiErr *clinical.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	reason := "patient unavailable"
	updated, err := client.UpdateSession(ctx, s.ID, clinical.SessionUpdate{
		Status:             clinical.StatusCancelled,
		CancellationReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, clinical.StatusCancelled, updated.Status)
	assert.Equal(t, reason, updated.CancellationReason)

	// The roster reflects both the status and the reason; the record is
	// retained, never deleted.
	roster, err := client.ListSessions(ctx, doctor.ID, clinical.RoleDoctor)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, clinical.StatusCancelled, roster[0].Status)
	assert.Equal(t, reason, roster[0].CancellationReason)

	// Reopening clears the reason.
	reopened, err := client.UpdateSession(ctx, s.ID, clinical.SessionUpdate{Status: clinical.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, clinical.StatusPending, reopened.Status)
	assert.Empty(t, reopened.CancellationReason)
}

func TestUpdateUnknownSession(t *testing.T) {
	client, _ := newTestServer(t)

	_, err := client.UpdateSession(context.Background(), "ghost", clinical.SessionUpdate{Status: clinical.StatusApproved})
	var apiErr *clinical.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClinicalRecordsAndTimeline(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	patient, _ := seedPair(t, client)

	day1 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	day3 := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

	require.NoError(t, client.AddVitals(ctx, patient.ID, clinical.VitalsObservation{
		RecordedAt: day1, HeartRate: 72, Systolic: 120, Diastolic: 80, SpO2: 98,
	}))
	require.NoError(t, client.AddDiagnosis(ctx, patient.ID, clinical.DiagnosisRecord{
		RecordedAt: day3, Symptoms: "chest pain", Diagnosis: "angina", Prescription: "nitroglycerin",
	}))
	require.NoError(t, client.AddBill(ctx, patient.ID, clinical.BilledService{
		ServiceName: "Lab Review", UnitCost: 40, Quantity: 2, ServiceDate: "2026-02-02",
	}))

	// Server recomputes the bill total from unit cost and quantity.
	bills, err := client.ListBills(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, 80.0, bills[0].TotalCost)

	timeline, err := client.PatientTimeline(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	assert.Equal(t, "vitals", timeline[0].Kind)
	assert.Equal(t, "bill", timeline[1].Kind)
	assert.Equal(t, "diagnosis", timeline[2].Kind)
	assert.Equal(t, "angina", timeline[2].Summary)
}

func TestBillQuantityValidation(t *testing.T) {
	client, _ := newTestServer(t)
	patient, _ := seedPair(t, client)

	err := client.AddBill(context.Background(), patient.ID, clinical.BilledService{
		ServiceName: "Lab Review", UnitCost: 40, Quantity: 0,
	})
	var apiErr *clinical.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestRecordsForUnknownPatient(t *testing.T) {
	client, _ := newTestServer(t)

	err := client.AddVitals(context.Background(), "ghost", clinical.VitalsObservation{HeartRate: 70})
	var apiErr *clinical.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDoctorReviews(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	_, doctor := seedPair(t, client)

	require.NoError(t, client.SubmitReview(ctx, doctor.ID, clinical.Review{
		Author: "Ada Osei", Rating: 5, Comment: "thorough and kind",
	}))

	err := client.SubmitReview(ctx, doctor.ID, clinical.Review{Author: "x", Rating: 9})
	var apiErr *clinical.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	reviews, err := client.ListReviews(ctx, doctor.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestAdminSurface(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()
	patient, doctor := seedPair(t, client)

	_, err := client.BookSession(ctx, clinical.BookingRequest{
		PatientID: patient.ID, DoctorID: doctor.ID, Date: "2026-03-01", Time: "09:00",
	})
	require.NoError(t, err)

	users, err := client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	stats, err := client.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPatients)
	assert.Equal(t, 1, stats.TotalDoctors)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.SessionsByStatus[clinical.StatusPending])

	require.NoError(t, client.DeleteUser(ctx, patient.ID))
	users, err = client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	err = client.DeleteUser(ctx, "ghost")
	var apiErr *clinical.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	store := NewMemStore()
	srv := httptest.NewServer(NewRouter(RouterConfig{
		Store:   store,
		Log:     zerolog.Nop(),
		Env:     "test",
		Version: "test",
		HealthDeps: map[string]Pinger{
			"store": func(context.Context) error { return nil },
		},
	}))
	defer srv.Close()

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}
