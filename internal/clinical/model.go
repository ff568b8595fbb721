package clinical

import "time"

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is one of the four session statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s ends the normal session flow.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

const (
	RoleDoctor  = "Doctor"
	RolePatient = "Patient"
	RoleAdmin   = "Admin"
)

// Session is one scheduled clinical encounter between a patient and a
// clinician. Cancellation is a terminal status, never a deletion, and
// CancellationReason is set iff Status is Cancelled.
type Session struct {
	ID                 string `json:"id"`
	PatientID          string `json:"patient_id"`
	PatientName        string `json:"patient_name"`
	DoctorID           string `json:"doctor_id"`
	DoctorName         string `json:"doctor_name"`
	Date               string `json:"date"` // YYYY-MM-DD
	Time               string `json:"time"` // HH:MM
	Type               string `json:"type"`
	Status             Status `json:"status"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// BookingRequest is the body of POST /appointments.
type BookingRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Type      string `json:"type"`
	Notes     string `json:"notes,omitempty"`
}

// SessionUpdate is the body of PUT /appointments/{id}. The reason travels as
// an explicit null on every non-cancel transition so the backend clears it.
type SessionUpdate struct {
	Status             Status  `json:"status"`
	CancellationReason *string `json:"cancellation_reason"`
}

type Patient struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	BloodType      string `json:"blood_type"`
	Ward           string `json:"ward"`
	Status         string `json:"status"` // acuity: Critical, Stable, Observation, Discharged
	MedicalHistory string `json:"medical_history"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
}

// PatientUpdate carries a partial patient mutation; nil fields are untouched.
type PatientUpdate struct {
	Ward           *string `json:"ward,omitempty"`
	Status         *string `json:"status,omitempty"`
	MedicalHistory *string `json:"medical_history,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	Address        *string `json:"address,omitempty"`
}

// VitalsObservation is one append-only vitals reading. The backend returns
// observations in recording order.
type VitalsObservation struct {
	RecordedAt time.Time `json:"recorded_at"`
	HeartRate  int       `json:"hr"`
	Systolic   int       `json:"sbp"`
	Diastolic  int       `json:"dbp"`
	Temp       float64   `json:"temp"`
	SpO2       int       `json:"spo2"`
	RespRate   int       `json:"rr"`
	Weight     *float64  `json:"weight,omitempty"`
	Height     *float64  `json:"height,omitempty"`
	Note       string    `json:"note,omitempty"`
}

type DiagnosisRecord struct {
	RecordedAt   time.Time `json:"recorded_at"`
	Symptoms     string    `json:"symptoms"`
	Diagnosis    string    `json:"diagnosis"`
	Prescription string    `json:"prescription"`
	FollowUp     string    `json:"follow_up,omitempty"`
}

const BillPaid = "Paid"

type BilledService struct {
	ServiceName string  `json:"service_name"`
	UnitCost    float64 `json:"unit_cost"`
	Quantity    int     `json:"quantity"`
	TotalCost   float64 `json:"total_cost"`
	ServiceDate string  `json:"service_date"`
	Status      string  `json:"status,omitempty"` // "Paid" or unset
}

type Doctor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Department string  `json:"department,omitempty"`
	Email      string  `json:"email,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
}

type Review struct {
	DoctorID  string    `json:"doctor_id"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TimelineEntry is one event in a patient's compact activity feed, composed
// by the backend from vitals, diagnoses and bills.
type TimelineEntry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"` // vitals, diagnosis, bill
	Summary string    `json:"summary"`
}

// AdminStats is the aggregate counters surface for the admin board.
type AdminStats struct {
	TotalPatients    int            `json:"total_patients"`
	TotalDoctors     int            `json:"total_doctors"`
	TotalSessions    int            `json:"total_sessions"`
	SessionsByStatus map[Status]int `json:"sessions_by_status"`
}
