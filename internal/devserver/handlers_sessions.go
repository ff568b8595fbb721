package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/auralis-health/clinical-console/internal/clinical"
	redisclient "github.com/auralis-health/clinical-console/internal/redis"
)

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	role := r.URL.Query().Get("role")

	sessions, err := s.store.ListSessions(r.Context(), userID, role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if sessions == nil {
		sessions = []clinical.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) bookSession(w http.ResponseWriter, r *http.Request) {
	var req clinical.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if req.PatientID == "" || req.DoctorID == "" || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "patient_id, doctor_id, date and time are required")
		return
	}

	patient, err := s.store.GetPatient(r.Context(), req.PatientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	doctor, err := s.store.GetDoctor(r.Context(), req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	var created *clinical.Session
	err = s.locker.WithBookingLock(r.Context(), req.DoctorID, req.Date, req.Time, func(lockCtx context.Context) error {
		busy, err := s.store.HasActiveBooking(lockCtx, req.DoctorID, req.Date, req.Time)
		if err != nil {
			return err
		}
		if busy {
			return ErrDuplicateBooking
		}

		created, err = s.store.CreateSession(lockCtx, clinical.Session{
			PatientID:   req.PatientID,
			PatientName: patient.Name,
			DoctorID:    req.DoctorID,
			DoctorName:  doctor.Name,
			Date:        req.Date,
			Time:        req.Time,
			Type:        req.Type,
			Status:      clinical.StatusPending,
			Notes:       req.Notes,
		})
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateBooking):
			writeError(w, http.StatusConflict, "slot_taken", err.Error())
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			writeError(w, http.StatusConflict, "slot_being_booked", "that time is being booked right now, please retry")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	s.log.Info().Str("session_id", created.ID).Str("doctor_id", created.DoctorID).Msg("session booked")
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd clinical.SessionUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if !upd.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_status", "status must be Pending, Approved, Completed or Cancelled")
		return
	}

	var reason *string
	if upd.Status == clinical.StatusCancelled {
		if upd.CancellationReason == nil || strings.TrimSpace(*upd.CancellationReason) == "" {
			writeError(w, http.StatusBadRequest, "reason_required", "cancellation requires a non-empty reason")
			return
		}
		reason = upd.CancellationReason
	}

	updated, err := s.store.UpdateSessionStatus(r.Context(), id, upd.Status, reason)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	s.log.Info().Str("session_id", id).Str("status", string(upd.Status)).Msg("session updated")
	writeJSON(w, http.StatusOK, updated)
}
