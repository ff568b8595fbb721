// seed fills a running devserver with demo data. It talks to the HTTP API
// through the same client the console uses, so a seeded environment also
// proves the client against every write path.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/auralis-health/clinical-console/internal/clinical"
	"github.com/auralis-health/clinical-console/internal/config"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var acuities = []string{"Critical", "Stable", "Observation", "Discharged"}

var services = []string{"Consultation", "Checkup", "Lab Review", "Surgery Follow-up", "Emergency"}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Info().Msg("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	client := clinical.New(cfg.APIBaseURL)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gofakeit.Seed(time.Now().UnixNano())

	doctors, err := seedDoctors(ctx, client, 8)
	if err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	log.Info().Int("count", len(doctors)).Msg("doctors seeded")

	patients, err := seedPatients(ctx, client, 40)
	if err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	log.Info().Int("count", len(patients)).Msg("patients seeded")

	if err := seedRecords(ctx, client, patients); err != nil {
		log.Fatal().Err(err).Msg("seed records")
	}
	log.Info().Msg("clinical records seeded")

	booked, err := seedSessions(ctx, client, patients, doctors)
	if err != nil {
		log.Fatal().Err(err).Msg("seed sessions")
	}
	log.Info().Int("count", booked).Msg("sessions seeded")

	log.Info().Msg("seed complete")
}

func seedDoctors(ctx context.Context, client *clinical.Client, count int) ([]clinical.Doctor, error) {
	out := make([]clinical.Doctor, 0, count)
	for i := 0; i < count; i++ {
		d, err := client.CreateDoctor(ctx, clinical.Doctor{
			Name:       "Dr. " + gofakeit.Name(),
			Specialty:  specialties[gofakeit.Number(0, len(specialties)-1)],
			Department: fmt.Sprintf("Ward %c", 'A'+gofakeit.Number(0, 3)),
			Email:      gofakeit.Email(),
			Rating:     float64(gofakeit.Number(30, 50)) / 10,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func seedPatients(ctx context.Context, client *clinical.Client, count int) ([]clinical.Patient, error) {
	bloodTypes := []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

	out := make([]clinical.Patient, 0, count)
	for i := 0; i < count; i++ {
		p, err := client.AdmitPatient(ctx, clinical.Patient{
			Name:           gofakeit.Name(),
			Age:            gofakeit.Number(18, 90),
			Gender:         gofakeit.Gender(),
			BloodType:      bloodTypes[gofakeit.Number(0, len(bloodTypes)-1)],
			Ward:           fmt.Sprintf("Ward %c", 'A'+gofakeit.Number(0, 3)),
			Status:         acuities[gofakeit.Number(0, len(acuities)-1)],
			MedicalHistory: gofakeit.Sentence(12),
			Phone:          gofakeit.Phone(),
			Email:          gofakeit.Email(),
			Address:        gofakeit.Address().Address,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func seedRecords(ctx context.Context, client *clinical.Client, patients []clinical.Patient) error {
	for _, p := range patients {
		observations := gofakeit.Number(5, 20)
		start := time.Now().Add(-time.Duration(observations) * 6 * time.Hour)
		for i := 0; i < observations; i++ {
			obs := clinical.VitalsObservation{
				RecordedAt: start.Add(time.Duration(i) * 6 * time.Hour),
				HeartRate:  gofakeit.Number(55, 130),
				Systolic:   gofakeit.Number(95, 180),
				Diastolic:  gofakeit.Number(60, 110),
				Temp:       float64(gofakeit.Number(970, 1030)) / 10,
				SpO2:       gofakeit.Number(90, 100),
				RespRate:   gofakeit.Number(12, 28),
			}
			if err := client.AddVitals(ctx, p.ID, obs); err != nil {
				return err
			}
		}

		for i := 0; i < gofakeit.Number(1, 3); i++ {
			rec := clinical.DiagnosisRecord{
				Symptoms:     gofakeit.Sentence(8),
				Diagnosis:    gofakeit.LoremIpsumWord(),
				Prescription: gofakeit.Sentence(5),
				FollowUp:     gofakeit.Sentence(4),
			}
			if err := client.AddDiagnosis(ctx, p.ID, rec); err != nil {
				return err
			}
		}

		for i := 0; i < gofakeit.Number(0, 4); i++ {
			status := ""
			if gofakeit.Bool() {
				status = clinical.BillPaid
			}
			bill := clinical.BilledService{
				ServiceName: services[gofakeit.Number(0, len(services)-1)],
				UnitCost:    float64(gofakeit.Number(20, 500)),
				Quantity:    gofakeit.Number(1, 3),
				ServiceDate: time.Now().AddDate(0, 0, -gofakeit.Number(0, 30)).Format("2006-01-02"),
				Status:      status,
			}
			bill.TotalCost = bill.UnitCost * float64(bill.Quantity)
			if err := client.AddBill(ctx, p.ID, bill); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedSessions(ctx context.Context, client *clinical.Client, patients []clinical.Patient, doctors []clinical.Doctor) (int, error) {
	booked := 0
	for i, p := range patients {
		if i%2 != 0 {
			continue
		}
		d := doctors[gofakeit.Number(0, len(doctors)-1)]

		s, err := client.BookSession(ctx, clinical.BookingRequest{
			PatientID: p.ID,
			DoctorID:  d.ID,
			Date:      time.Now().AddDate(0, 0, gofakeit.Number(1, 14)).Format("2006-01-02"),
			Time:      fmt.Sprintf("%02d:%02d", gofakeit.Number(8, 17), 15*gofakeit.Number(0, 3)),
			Type:      services[gofakeit.Number(0, len(services)-1)],
			Notes:     gofakeit.Sentence(6),
		})
		if err != nil {
			// Duplicate slot collisions are expected with random times.
			continue
		}
		booked++

		// Leave a mix of statuses behind so the roster looks lived-in.
		switch gofakeit.Number(0, 3) {
		case 1:
			_, err = client.UpdateSession(ctx, s.ID, clinical.SessionUpdate{Status: clinical.StatusApproved})
		case 2:
			reason := "patient unavailable"
			_, err = client.UpdateSession(ctx, s.ID, clinical.SessionUpdate{
				Status:             clinical.StatusCancelled,
				CancellationReason: &reason,
			})
		}
		if err != nil {
			return booked, err
		}
	}
	return booked, nil
}
