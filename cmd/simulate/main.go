// simulate drives concurrent load through the clinical client against a
// running devserver: bookings, lifecycle transitions and dossier fan-outs.
// Useful for shaking out races in the booking lock and for latency numbers.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/auralis-health/clinical-console/internal/clinical"
	"github.com/auralis-health/clinical-console/internal/config"
	"github.com/auralis-health/clinical-console/internal/dossier"
)

type simConfig struct {
	Duration time.Duration
	Workers  int
}

type opMetrics struct {
	total    int64
	success  int64
	conflict int64
	failed   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *opMetrics) record(latency time.Duration, err error) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case err == nil:
		atomic.AddInt64(&m.success, 1)
	case isConflict(err):
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.failed, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *opMetrics) percentile(p float64) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func isConflict(err error) bool {
	var apiErr *clinical.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 409
	}
	return false
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	sim := simConfig{
		Duration: durationEnv("SIM_DURATION", 30*time.Second),
		Workers:  intEnv("SIM_WORKERS", 8),
	}
	log.Info().Dur("duration", sim.Duration).Int("workers", sim.Workers).Str("target", cfg.APIBaseURL).Msg("simulation starting")

	client := clinical.New(cfg.APIBaseURL)
	ctx := context.Background()

	patients, err := client.ListPatients(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch patients (run seed first)")
	}
	doctors, err := client.ListDoctors(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch doctors (run seed first)")
	}
	if len(patients) == 0 || len(doctors) == 0 {
		log.Fatal().Msg("empty registry, run seed first")
	}

	metrics := map[string]*opMetrics{
		"book":       {},
		"transition": {},
		"roster":     {},
		"dossier":    {},
	}

	runCtx, cancel := context.WithTimeout(ctx, sim.Duration)
	defer cancel()

	var booked sync.Map // session id -> status

	var wg sync.WaitGroup
	for w := 0; w < sim.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for runCtx.Err() == nil {
				switch rng.Intn(4) {
				case 0:
					p := patients[rng.Intn(len(patients))]
					d := doctors[rng.Intn(len(doctors))]
					start := time.Now()
					s, err := client.BookSession(runCtx, clinical.BookingRequest{
						PatientID: p.ID,
						DoctorID:  d.ID,
						Date:      time.Now().AddDate(0, 0, 1+rng.Intn(30)).Format("2006-01-02"),
						Time:      fmt.Sprintf("%02d:00", 8+rng.Intn(10)),
						Type:      "Consultation",
					})
					metrics["book"].record(time.Since(start), err)
					if err == nil {
						booked.Store(s.ID, s.Status)
					}
				case 1:
					id, ok := randomBooked(&booked, rng)
					if !ok {
						continue
					}
					start := time.Now()
					_, err := client.UpdateSession(runCtx, id, clinical.SessionUpdate{Status: clinical.StatusApproved})
					metrics["transition"].record(time.Since(start), err)
				case 2:
					d := doctors[rng.Intn(len(doctors))]
					start := time.Now()
					_, err := client.ListSessions(runCtx, d.ID, clinical.RoleDoctor)
					metrics["roster"].record(time.Since(start), err)
				case 3:
					p := patients[rng.Intn(len(patients))]
					start := time.Now()
					view := dossier.NewView(runCtx, client, p.ID)
					_, err := view.Load(runCtx)
					view.Close()
					metrics["dossier"].record(time.Since(start), err)
				}
			}
		}(int64(w) + time.Now().UnixNano())
	}
	wg.Wait()

	for name, m := range metrics {
		fmt.Printf("%-10s total=%d success=%d conflict=%d failed=%d p50=%s p95=%s\n",
			name,
			atomic.LoadInt64(&m.total),
			atomic.LoadInt64(&m.success),
			atomic.LoadInt64(&m.conflict),
			atomic.LoadInt64(&m.failed),
			m.percentile(0.50),
			m.percentile(0.95),
		)
	}
}

func randomBooked(m *sync.Map, rng *rand.Rand) (string, bool) {
	var ids []string
	m.Range(func(k, _ any) bool {
		ids = append(ids, k.(string))
		return len(ids) < 64
	})
	if len(ids) == 0 {
		return "", false
	}
	return ids[rng.Intn(len(ids))], true
}

func durationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
