package devserver

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

// MemStore is the default store: mutex-guarded slices in insertion order,
// which is the order the backend contract exposes.
type MemStore struct {
	mu        sync.RWMutex
	sessions  []clinical.Session
	patients  []clinical.Patient
	doctors   []clinical.Doctor
	vitals    map[string][]clinical.VitalsObservation
	diagnoses map[string][]clinical.DiagnosisRecord
	bills     map[string][]clinical.BilledService
	reviews   map[string][]clinical.Review
}

func NewMemStore() *MemStore {
	return &MemStore{
		vitals:    make(map[string][]clinical.VitalsObservation),
		diagnoses: make(map[string][]clinical.DiagnosisRecord),
		bills:     make(map[string][]clinical.BilledService),
		reviews:   make(map[string][]clinical.Review),
	}
}

func (m *MemStore) ListSessions(_ context.Context, userID, role string) ([]clinical.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []clinical.Session
	for _, s := range m.sessions {
		switch role {
		case clinical.RoleDoctor:
			if s.DoctorID != userID {
				continue
			}
		case clinical.RolePatient:
			if s.PatientID != userID {
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *MemStore) GetSession(_ context.Context, id string) (*clinical.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *MemStore) CreateSession(_ context.Context, s clinical.Session) (*clinical.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.sessions = append(m.sessions, s)
	cp := s
	return &cp, nil
}

func (m *MemStore) UpdateSessionStatus(_ context.Context, id string, status clinical.Status, reason *string) (*clinical.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID != id {
			continue
		}
		m.sessions[i].Status = status
		if reason != nil {
			m.sessions[i].CancellationReason = *reason
		} else {
			m.sessions[i].CancellationReason = ""
		}
		cp := m.sessions[i]
		return &cp, nil
	}
	return nil, ErrSessionNotFound
}

func (m *MemStore) HasActiveBooking(_ context.Context, doctorID, date, timeOfDay string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.DoctorID == doctorID && s.Date == date && s.Time == timeOfDay && s.Status != clinical.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) ListPatients(_ context.Context) ([]clinical.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clinical.Patient, len(m.patients))
	copy(out, m.patients)
	return out, nil
}

func (m *MemStore) GetPatient(_ context.Context, id string) (*clinical.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.patients {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *MemStore) CreatePatient(_ context.Context, p clinical.Patient) (*clinical.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.patients = append(m.patients, p)
	cp := p
	return &cp, nil
}

func (m *MemStore) UpdatePatient(_ context.Context, id string, upd clinical.PatientUpdate) (*clinical.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.patients {
		if m.patients[i].ID != id {
			continue
		}
		p := &m.patients[i]
		if upd.Ward != nil {
			p.Ward = *upd.Ward
		}
		if upd.Status != nil {
			p.Status = *upd.Status
		}
		if upd.MedicalHistory != nil {
			p.MedicalHistory = *upd.MedicalHistory
		}
		if upd.Phone != nil {
			p.Phone = *upd.Phone
		}
		if upd.Email != nil {
			p.Email = *upd.Email
		}
		if upd.Address != nil {
			p.Address = *upd.Address
		}
		cp := *p
		return &cp, nil
	}
	return nil, ErrPatientNotFound
}

func (m *MemStore) ListVitals(_ context.Context, patientID string) ([]clinical.VitalsObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clinical.VitalsObservation, len(m.vitals[patientID]))
	copy(out, m.vitals[patientID])
	return out, nil
}

func (m *MemStore) AddVitals(_ context.Context, patientID string, obs clinical.VitalsObservation) error {
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.patientExists(patientID) {
		return ErrPatientNotFound
	}
	m.vitals[patientID] = append(m.vitals[patientID], obs)
	return nil
}

func (m *MemStore) ListDiagnoses(_ context.Context, patientID string) ([]clinical.DiagnosisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clinical.DiagnosisRecord, len(m.diagnoses[patientID]))
	copy(out, m.diagnoses[patientID])
	return out, nil
}

func (m *MemStore) AddDiagnosis(_ context.Context, patientID string, rec clinical.DiagnosisRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.patientExists(patientID) {
		return ErrPatientNotFound
	}
	m.diagnoses[patientID] = append(m.diagnoses[patientID], rec)
	return nil
}

func (m *MemStore) ListBills(_ context.Context, patientID string) ([]clinical.BilledService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clinical.BilledService, len(m.bills[patientID]))
	copy(out, m.bills[patientID])
	return out, nil
}

func (m *MemStore) AddBill(_ context.Context, patientID string, bill clinical.BilledService) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.patientExists(patientID) {
		return ErrPatientNotFound
	}
	m.bills[patientID] = append(m.bills[patientID], bill)
	return nil
}

func (m *MemStore) ListDoctors(_ context.Context) ([]clinical.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clinical.Doctor, len(m.doctors))
	copy(out, m.doctors)
	return out, nil
}

func (m *MemStore) GetDoctor(_ context.Context, id string) (*clinical.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.doctors {
		if d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *MemStore) CreateDoctor(_ context.Context, d clinical.Doctor) (*clinical.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	m.doctors = append(m.doctors, d)
	cp := d
	return &cp, nil
}

func (m *MemStore) UpdateDoctor(_ context.Context, id string, d clinical.Doctor) (*clinical.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.doctors {
		if m.doctors[i].ID != id {
			continue
		}
		d.ID = id
		m.doctors[i] = d
		cp := d
		return &cp, nil
	}
	return nil, ErrDoctorNotFound
}

func (m *MemStore) ListReviews(_ context.Context, doctorID string) ([]clinical.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clinical.Review, len(m.reviews[doctorID]))
	copy(out, m.reviews[doctorID])
	return out, nil
}

func (m *MemStore) AddReview(_ context.Context, doctorID string, rev clinical.Review) error {
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}
	rev.DoctorID = doctorID
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.ID == doctorID {
			m.reviews[doctorID] = append(m.reviews[doctorID], rev)
			return nil
		}
	}
	return ErrDoctorNotFound
}

func (m *MemStore) ListUsers(_ context.Context) ([]clinical.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []clinical.User
	for _, d := range m.doctors {
		out = append(out, clinical.User{ID: d.ID, Name: d.Name, Email: d.Email, Role: clinical.RoleDoctor})
	}
	for _, p := range m.patients {
		out = append(out, clinical.User{ID: p.ID, Name: p.Name, Email: p.Email, Role: clinical.RolePatient})
	}
	return out, nil
}

func (m *MemStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.doctors {
		if d.ID == id {
			m.doctors = append(m.doctors[:i], m.doctors[i+1:]...)
			return nil
		}
	}
	for i, p := range m.patients {
		if p.ID == id {
			m.patients = append(m.patients[:i], m.patients[i+1:]...)
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *MemStore) Stats(_ context.Context) (*clinical.AdminStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &clinical.AdminStats{
		TotalPatients:    len(m.patients),
		TotalDoctors:     len(m.doctors),
		TotalSessions:    len(m.sessions),
		SessionsByStatus: make(map[clinical.Status]int),
	}
	for _, s := range m.sessions {
		stats.SessionsByStatus[s.Status]++
	}
	return stats, nil
}

// patientExists must be called with the lock held.
func (m *MemStore) patientExists(id string) bool {
	for _, p := range m.patients {
		if p.ID == id {
			return true
		}
	}
	return false
}
