// Package devserver is the development stub of the clinical backend. It
// implements the REST surface the console consumes so the client, the
// lifecycle controller and the dossier aggregator can run and be
// integration-tested without the production backend.
package devserver

import (
	"context"
	"errors"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

var (
	ErrSessionNotFound  = errors.New("appointment not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateBooking = errors.New("clinician already has an active session at that time")
)

// Store contains all persistence interactions the handlers need.
type Store interface {
	ListSessions(ctx context.Context, userID, role string) ([]clinical.Session, error)
	GetSession(ctx context.Context, id string) (*clinical.Session, error)
	CreateSession(ctx context.Context, s clinical.Session) (*clinical.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status clinical.Status, reason *string) (*clinical.Session, error)

	// For double-booking checks inside the booking lock
	HasActiveBooking(ctx context.Context, doctorID, date, timeOfDay string) (bool, error)

	ListPatients(ctx context.Context) ([]clinical.Patient, error)
	GetPatient(ctx context.Context, id string) (*clinical.Patient, error)
	CreatePatient(ctx context.Context, p clinical.Patient) (*clinical.Patient, error)
	UpdatePatient(ctx context.Context, id string, upd clinical.PatientUpdate) (*clinical.Patient, error)

	ListVitals(ctx context.Context, patientID string) ([]clinical.VitalsObservation, error)
	AddVitals(ctx context.Context, patientID string, obs clinical.VitalsObservation) error
	ListDiagnoses(ctx context.Context, patientID string) ([]clinical.DiagnosisRecord, error)
	AddDiagnosis(ctx context.Context, patientID string, rec clinical.DiagnosisRecord) error
	ListBills(ctx context.Context, patientID string) ([]clinical.BilledService, error)
	AddBill(ctx context.Context, patientID string, bill clinical.BilledService) error

	ListDoctors(ctx context.Context) ([]clinical.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*clinical.Doctor, error)
	CreateDoctor(ctx context.Context, d clinical.Doctor) (*clinical.Doctor, error)
	UpdateDoctor(ctx context.Context, id string, d clinical.Doctor) (*clinical.Doctor, error)

	ListReviews(ctx context.Context, doctorID string) ([]clinical.Review, error)
	AddReview(ctx context.Context, doctorID string, rev clinical.Review) error

	// Admin surface. Users are the union of doctors and patients; deleting a
	// user removes the underlying record.
	ListUsers(ctx context.Context) ([]clinical.User, error)
	DeleteUser(ctx context.Context, id string) error
	Stats(ctx context.Context) (*clinical.AdminStats, error)
}
