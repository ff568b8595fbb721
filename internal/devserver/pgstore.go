package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

// PgStore persists the stub backend's data in Postgres. Selected when
// POSTGRES_DSN is set; the schema is created on startup so the binary is
// self-contained.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	age INT NOT NULL DEFAULT 0,
	gender TEXT NOT NULL DEFAULT '',
	blood_type TEXT NOT NULL DEFAULT '',
	ward TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	medical_history TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	seq BIGSERIAL
);
CREATE TABLE IF NOT EXISTS doctors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	specialty TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	seq BIGSERIAL
);
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	patient_name TEXT NOT NULL DEFAULT '',
	doctor_id TEXT NOT NULL,
	doctor_name TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	cancellation_reason TEXT,
	notes TEXT NOT NULL DEFAULT '',
	seq BIGSERIAL
);
CREATE TABLE IF NOT EXISTS vitals (
	seq BIGSERIAL PRIMARY KEY,
	patient_id TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	hr INT NOT NULL,
	sbp INT NOT NULL,
	dbp INT NOT NULL,
	temp DOUBLE PRECISION NOT NULL,
	spo2 INT NOT NULL,
	rr INT NOT NULL,
	weight DOUBLE PRECISION,
	height DOUBLE PRECISION,
	note TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS diagnoses (
	seq BIGSERIAL PRIMARY KEY,
	patient_id TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	symptoms TEXT NOT NULL DEFAULT '',
	diagnosis TEXT NOT NULL DEFAULT '',
	prescription TEXT NOT NULL DEFAULT '',
	follow_up TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS bills (
	seq BIGSERIAL PRIMARY KEY,
	patient_id TEXT NOT NULL,
	service_name TEXT NOT NULL,
	unit_cost DOUBLE PRECISION NOT NULL,
	quantity INT NOT NULL,
	total_cost DOUBLE PRECISION NOT NULL,
	service_date TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS reviews (
	seq BIGSERIAL PRIMARY KEY,
	doctor_id TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	rating INT NOT NULL DEFAULT 0,
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables when they do not exist yet.
func (r *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Helpers

func scanSession(row pgx.Row) (*clinical.Session, error) {
	var s clinical.Session
	var reason *string

	err := row.Scan(
		&s.ID,
		&s.PatientID,
		&s.PatientName,
		&s.DoctorID,
		&s.DoctorName,
		&s.Date,
		&s.Time,
		&s.Type,
		&s.Status,
		&reason,
		&s.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if reason != nil {
		s.CancellationReason = *reason
	}
	return &s, nil
}

func scanPatient(row pgx.Row) (*clinical.Patient, error) {
	var p clinical.Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Gender,
		&p.BloodType,
		&p.Ward,
		&p.Status,
		&p.MedicalHistory,
		&p.Phone,
		&p.Email,
		&p.Address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanDoctor(row pgx.Row) (*clinical.Doctor, error) {
	var d clinical.Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.Department,
		&d.Email,
		&d.Rating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

const sessionColumns = `id, patient_id, patient_name, doctor_id, doctor_name, date, time, type, status, cancellation_reason, notes`

// Interface methods

func (r *PgStore) ListSessions(ctx context.Context, userID, role string) ([]clinical.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM appointments ORDER BY seq`
	args := []any{}
	switch role {
	case clinical.RoleDoctor:
		query = `SELECT ` + sessionColumns + ` FROM appointments WHERE doctor_id = $1 ORDER BY seq`
		args = append(args, userID)
	case clinical.RolePatient:
		query = `SELECT ` + sessionColumns + ` FROM appointments WHERE patient_id = $1 ORDER BY seq`
		args = append(args, userID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgStore) GetSession(ctx context.Context, id string) (*clinical.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM appointments WHERE id = $1`, id)
	return scanSession(row)
}

func (r *PgStore) CreateSession(ctx context.Context, s clinical.Session) (*clinical.Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, patient_name, doctor_id, doctor_name, date, time, type, status, cancellation_reason, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10)
		RETURNING `+sessionColumns+`
	`, s.ID, s.PatientID, s.PatientName, s.DoctorID, s.DoctorName, s.Date, s.Time, s.Type, s.Status, s.Notes)

	return scanSession(row)
}

func (r *PgStore) UpdateSessionStatus(ctx context.Context, id string, status clinical.Status, reason *string) (*clinical.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    cancellation_reason = $3
		WHERE id = $1
		RETURNING `+sessionColumns+`
	`, id, status, reason)

	return scanSession(row)
}

func (r *PgStore) HasActiveBooking(ctx context.Context, doctorID, date, timeOfDay string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND time = $3 AND status <> $4
		)
	`, doctorID, date, timeOfDay, clinical.StatusCancelled).Scan(&exists)
	return exists, err
}

const patientColumns = `id, name, age, gender, blood_type, ward, status, medical_history, phone, email, address`

func (r *PgStore) ListPatients(ctx context.Context) ([]clinical.Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgStore) GetPatient(ctx context.Context, id string) (*clinical.Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgStore) CreatePatient(ctx context.Context, p clinical.Patient) (*clinical.Patient, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, age, gender, blood_type, ward, status, medical_history, phone, email, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+patientColumns+`
	`, p.ID, p.Name, p.Age, p.Gender, p.BloodType, p.Ward, p.Status, p.MedicalHistory, p.Phone, p.Email, p.Address)

	return scanPatient(row)
}

func (r *PgStore) UpdatePatient(ctx context.Context, id string, upd clinical.PatientUpdate) (*clinical.Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET ward = COALESCE($2, ward),
		    status = COALESCE($3, status),
		    medical_history = COALESCE($4, medical_history),
		    phone = COALESCE($5, phone),
		    email = COALESCE($6, email),
		    address = COALESCE($7, address)
		WHERE id = $1
		RETURNING `+patientColumns+`
	`, id, upd.Ward, upd.Status, upd.MedicalHistory, upd.Phone, upd.Email, upd.Address)

	return scanPatient(row)
}

func (r *PgStore) ListVitals(ctx context.Context, patientID string) ([]clinical.VitalsObservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT recorded_at, hr, sbp, dbp, temp, spo2, rr, weight, height, note
		FROM vitals
		WHERE patient_id = $1
		ORDER BY seq
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.VitalsObservation
	for rows.Next() {
		var v clinical.VitalsObservation
		if err := rows.Scan(&v.RecordedAt, &v.HeartRate, &v.Systolic, &v.Diastolic, &v.Temp, &v.SpO2, &v.RespRate, &v.Weight, &v.Height, &v.Note); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *PgStore) AddVitals(ctx context.Context, patientID string, obs clinical.VitalsObservation) error {
	if _, err := r.GetPatient(ctx, patientID); err != nil {
		return err
	}
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vitals (patient_id, recorded_at, hr, sbp, dbp, temp, spo2, rr, weight, height, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, patientID, obs.RecordedAt, obs.HeartRate, obs.Systolic, obs.Diastolic, obs.Temp, obs.SpO2, obs.RespRate, obs.Weight, obs.Height, obs.Note)
	return err
}

func (r *PgStore) ListDiagnoses(ctx context.Context, patientID string) ([]clinical.DiagnosisRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT recorded_at, symptoms, diagnosis, prescription, follow_up
		FROM diagnoses
		WHERE patient_id = $1
		ORDER BY seq
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.DiagnosisRecord
	for rows.Next() {
		var d clinical.DiagnosisRecord
		if err := rows.Scan(&d.RecordedAt, &d.Symptoms, &d.Diagnosis, &d.Prescription, &d.FollowUp); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgStore) AddDiagnosis(ctx context.Context, patientID string, rec clinical.DiagnosisRecord) error {
	if _, err := r.GetPatient(ctx, patientID); err != nil {
		return err
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO diagnoses (patient_id, recorded_at, symptoms, diagnosis, prescription, follow_up)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, patientID, rec.RecordedAt, rec.Symptoms, rec.Diagnosis, rec.Prescription, rec.FollowUp)
	return err
}

func (r *PgStore) ListBills(ctx context.Context, patientID string) ([]clinical.BilledService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT service_name, unit_cost, quantity, total_cost, service_date, status
		FROM bills
		WHERE patient_id = $1
		ORDER BY seq
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.BilledService
	for rows.Next() {
		var b clinical.BilledService
		if err := rows.Scan(&b.ServiceName, &b.UnitCost, &b.Quantity, &b.TotalCost, &b.ServiceDate, &b.Status); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *PgStore) AddBill(ctx context.Context, patientID string, bill clinical.BilledService) error {
	if _, err := r.GetPatient(ctx, patientID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bills (patient_id, service_name, unit_cost, quantity, total_cost, service_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, patientID, bill.ServiceName, bill.UnitCost, bill.Quantity, bill.TotalCost, bill.ServiceDate, bill.Status)
	return err
}

const doctorColumns = `id, name, specialty, department, email, rating`

func (r *PgStore) ListDoctors(ctx context.Context) ([]clinical.Doctor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgStore) GetDoctor(ctx context.Context, id string) (*clinical.Doctor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgStore) CreateDoctor(ctx context.Context, d clinical.Doctor) (*clinical.Doctor, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, name, specialty, department, email, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+doctorColumns+`
	`, d.ID, d.Name, d.Specialty, d.Department, d.Email, d.Rating)

	return scanDoctor(row)
}

func (r *PgStore) UpdateDoctor(ctx context.Context, id string, d clinical.Doctor) (*clinical.Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2, specialty = $3, department = $4, email = $5, rating = $6
		WHERE id = $1
		RETURNING `+doctorColumns+`
	`, id, d.Name, d.Specialty, d.Department, d.Email, d.Rating)

	return scanDoctor(row)
}

func (r *PgStore) ListReviews(ctx context.Context, doctorID string) ([]clinical.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, author, rating, comment, created_at
		FROM reviews
		WHERE doctor_id = $1
		ORDER BY seq
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.Review
	for rows.Next() {
		var rev clinical.Review
		if err := rows.Scan(&rev.DoctorID, &rev.Author, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rev)
	}
	return result, rows.Err()
}

func (r *PgStore) AddReview(ctx context.Context, doctorID string, rev clinical.Review) error {
	if _, err := r.GetDoctor(ctx, doctorID); err != nil {
		return err
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (doctor_id, author, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, doctorID, rev.Author, rev.Rating, rev.Comment, rev.CreatedAt)
	return err
}

func (r *PgStore) ListUsers(ctx context.Context) ([]clinical.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, $1::text AS role FROM doctors
		UNION ALL
		SELECT id, name, email, $2::text AS role FROM patients
	`, clinical.RoleDoctor, clinical.RolePatient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clinical.User
	for rows.Next() {
		var u clinical.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *PgStore) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	tag, err = r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgStore) Stats(ctx context.Context) (*clinical.AdminStats, error) {
	stats := &clinical.AdminStats{SessionsByStatus: make(map[clinical.Status]int)}

	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM patients`).Scan(&stats.TotalPatients); err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM doctors`).Scan(&stats.TotalDoctors); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status clinical.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.SessionsByStatus[status] = n
		stats.TotalSessions += n
	}
	return stats, rows.Err()
}
