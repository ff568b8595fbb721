package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

func (s *Server) listPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.store.ListPatients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if patients == nil {
		patients = []clinical.Patient{}
	}
	writeJSON(w, http.StatusOK, patients)
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPatient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) admitPatient(w http.ResponseWriter, r *http.Request) {
	var p clinical.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "name is required")
		return
	}

	created, err := s.store.CreatePatient(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updatePatient(w http.ResponseWriter, r *http.Request) {
	var upd clinical.PatientUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	p, err := s.store.UpdatePatient(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listVitals(w http.ResponseWriter, r *http.Request) {
	vitals, err := s.store.ListVitals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if vitals == nil {
		vitals = []clinical.VitalsObservation{}
	}
	writeJSON(w, http.StatusOK, vitals)
}

func (s *Server) addVitals(w http.ResponseWriter, r *http.Request) {
	var obs clinical.VitalsObservation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	if err := s.store.AddVitals(r.Context(), chi.URLParam(r, "id"), obs); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) listDiagnoses(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListDiagnoses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if recs == nil {
		recs = []clinical.DiagnosisRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) addDiagnosis(w http.ResponseWriter, r *http.Request) {
	var rec clinical.DiagnosisRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	if err := s.store.AddDiagnosis(r.Context(), chi.URLParam(r, "id"), rec); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) listBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.store.ListBills(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if bills == nil {
		bills = []clinical.BilledService{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (s *Server) addBill(w http.ResponseWriter, r *http.Request) {
	var bill clinical.BilledService
	if err := json.NewDecoder(r.Body).Decode(&bill); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if bill.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}
	// Totals are recomputed server-side as well; the stored value is never
	// trusted from the wire.
	bill.TotalCost = bill.UnitCost * float64(bill.Quantity)

	if err := s.store.AddBill(r.Context(), chi.URLParam(r, "id"), bill); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// patientTimeline composes a flat event feed from vitals, diagnoses and
// bills, oldest first.
func (s *Server) patientTimeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	vitals, err := s.store.ListVitals(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	diagnoses, err := s.store.ListDiagnoses(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	bills, err := s.store.ListBills(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	entries := make([]clinical.TimelineEntry, 0, len(vitals)+len(diagnoses)+len(bills))
	for _, v := range vitals {
		entries = append(entries, clinical.TimelineEntry{
			At:      v.RecordedAt,
			Kind:    "vitals",
			Summary: fmt.Sprintf("HR %d, BP %d/%d, SpO2 %d%%", v.HeartRate, v.Systolic, v.Diastolic, v.SpO2),
		})
	}
	for _, d := range diagnoses {
		entries = append(entries, clinical.TimelineEntry{
			At:      d.RecordedAt,
			Kind:    "diagnosis",
			Summary: d.Diagnosis,
		})
	}
	for _, b := range bills {
		at, err := time.Parse("2006-01-02", b.ServiceDate)
		if err != nil {
			continue
		}
		entries = append(entries, clinical.TimelineEntry{
			At:      at,
			Kind:    "bill",
			Summary: fmt.Sprintf("%s x%d", b.ServiceName, b.Quantity),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].At.Before(entries[j].At) })
	writeJSON(w, http.StatusOK, entries)
}
