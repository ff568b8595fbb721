// Package dossier aggregates one patient's profile, vitals, diagnoses and
// bills into a consistent snapshot. The four reads fan out concurrently and
// under the default policy the snapshot is all-or-nothing: a consumer sees
// either nothing or everything, never a partially populated "ready" state.
package dossier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

var ErrViewClosed = errors.New("dossier view is closed")

// Policy names the fan-out join behavior.
type Policy int

const (
	// PolicyAllOrNothing fails the whole snapshot on the first failed read
	// and discards whatever the sibling reads returned.
	PolicyAllOrNothing Policy = iota
	// PolicyBestEffort keeps the resources that loaded and records
	// per-resource errors for the rest.
	PolicyBestEffort
)

// Resource keys the dossier's four sub-resources for invalidation and for
// best-effort error reporting.
type Resource string

const (
	ResourceProfile   Resource = "profile"
	ResourceVitals    Resource = "vitals"
	ResourceDiagnoses Resource = "diagnoses"
	ResourceBills     Resource = "bills"
)

// PatientAPI is the slice of the backend client the aggregator needs.
type PatientAPI interface {
	GetPatient(ctx context.Context, id string) (*clinical.Patient, error)
	ListVitals(ctx context.Context, patientID string) ([]clinical.VitalsObservation, error)
	ListDiagnoses(ctx context.Context, patientID string) ([]clinical.DiagnosisRecord, error)
	ListBills(ctx context.Context, patientID string) ([]clinical.BilledService, error)
	AddVitals(ctx context.Context, patientID string, obs clinical.VitalsObservation) error
	AddDiagnosis(ctx context.Context, patientID string, rec clinical.DiagnosisRecord) error
	AddBill(ctx context.Context, patientID string, bill clinical.BilledService) error
	UpdatePatient(ctx context.Context, id string, upd clinical.PatientUpdate) (*clinical.Patient, error)
}

// Snapshot is a read-through capture of the backend at one point in time.
// Errors is populated only under PolicyBestEffort.
type Snapshot struct {
	Profile   *clinical.Patient
	Vitals    []clinical.VitalsObservation
	Diagnoses []clinical.DiagnosisRecord
	Bills     []clinical.BilledService
	FetchedAt time.Time
	Errors    map[Resource]error
}

// View owns the dossier of one patient for the lifetime of one consuming
// surface. Close cancels in-flight fan-outs; a late result never mutates a
// closed view.
type View struct {
	api       PatientAPI
	patientID string
	policy    Policy
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	snap   *Snapshot
	stale  map[Resource]bool
	closed bool
}

type ViewOption func(*View)

func WithPolicy(p Policy) ViewOption {
	return func(v *View) { v.policy = p }
}

func WithLogger(l zerolog.Logger) ViewOption {
	return func(v *View) { v.log = l }
}

// NewView scopes the dossier of patientID to the given parent context.
func NewView(parent context.Context, api PatientAPI, patientID string, opts ...ViewOption) *View {
	ctx, cancel := context.WithCancel(parent)
	v := &View{
		api:       api,
		patientID: patientID,
		policy:    PolicyAllOrNothing,
		log:       zerolog.Nop(),
		ctx:       ctx,
		cancel:    cancel,
		stale:     make(map[Resource]bool),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With().Str("component", "dossier").Str("patient_id", patientID).Logger()
	return v
}

// Close tears the view down and cancels any in-flight fan-out.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

// Snapshot returns the last loaded snapshot, or nil if none is ready.
func (v *View) Snapshot() *Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Invalidate marks one sub-resource stale. The next Load re-runs the full
// fan-out: a write's visible effect is always a complete re-read.
func (v *View) Invalidate(res Resource) {
	v.mu.Lock()
	v.stale[res] = true
	v.mu.Unlock()
}

// Load returns the cached snapshot when nothing is stale, else refreshes.
func (v *View) Load(ctx context.Context) (*Snapshot, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrViewClosed
	}
	if v.snap != nil && len(v.stale) == 0 {
		snap := v.snap
		v.mu.Unlock()
		return snap, nil
	}
	v.mu.Unlock()

	return v.Refresh(ctx)
}

// Refresh issues the four reads concurrently and joins them under the
// view's policy.
func (v *View) Refresh(ctx context.Context) (*Snapshot, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrViewClosed
	}
	v.mu.Unlock()

	var snap *Snapshot
	var err error
	switch v.policy {
	case PolicyBestEffort:
		snap = v.fetchBestEffort(ctx)
	default:
		snap, err = v.fetchAllOrNothing(ctx)
	}
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		// The consumer navigated away while the fan-out was in flight;
		// drop the result instead of writing to a torn-down view.
		return nil, ErrViewClosed
	}
	v.snap = snap
	v.stale = make(map[Resource]bool)
	return snap, nil
}

func (v *View) fetchAllOrNothing(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(v.joined(ctx))

	g.Go(func() error {
		p, err := v.api.GetPatient(gctx, v.patientID)
		if err != nil {
			return err
		}
		snap.Profile = p
		return nil
	})
	g.Go(func() error {
		vs, err := v.api.ListVitals(gctx, v.patientID)
		if err != nil {
			return err
		}
		snap.Vitals = vs
		return nil
	})
	g.Go(func() error {
		ds, err := v.api.ListDiagnoses(gctx, v.patientID)
		if err != nil {
			return err
		}
		snap.Diagnoses = ds
		return nil
	})
	g.Go(func() error {
		bs, err := v.api.ListBills(gctx, v.patientID)
		if err != nil {
			return err
		}
		snap.Bills = bs
		return nil
	})

	if err := g.Wait(); err != nil {
		v.log.Warn().Err(err).Msg("dossier load failed")
		return nil, err
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}

func (v *View) fetchBestEffort(ctx context.Context) *Snapshot {
	snap := &Snapshot{Errors: make(map[Resource]error)}
	jctx := v.joined(ctx)

	var wg sync.WaitGroup
	var mu sync.Mutex
	record := func(res Resource, err error) {
		mu.Lock()
		snap.Errors[res] = err
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		p, err := v.api.GetPatient(jctx, v.patientID)
		if err != nil {
			record(ResourceProfile, err)
			return
		}
		snap.Profile = p
	}()
	go func() {
		defer wg.Done()
		vs, err := v.api.ListVitals(jctx, v.patientID)
		if err != nil {
			record(ResourceVitals, err)
			return
		}
		snap.Vitals = vs
	}()
	go func() {
		defer wg.Done()
		ds, err := v.api.ListDiagnoses(jctx, v.patientID)
		if err != nil {
			record(ResourceDiagnoses, err)
			return
		}
		snap.Diagnoses = ds
	}()
	go func() {
		defer wg.Done()
		bs, err := v.api.ListBills(jctx, v.patientID)
		if err != nil {
			record(ResourceBills, err)
			return
		}
		snap.Bills = bs
	}()
	wg.Wait()

	snap.FetchedAt = time.Now()
	return snap
}

// joined derives the fan-out context from the caller's context while still
// honoring view teardown.
func (v *View) joined(ctx context.Context) context.Context {
	if ctx == nil || ctx == context.Background() {
		return v.ctx
	}
	merged, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-v.ctx.Done():
			cancel()
		case <-merged.Done():
		}
	}()
	return merged
}

// Mutations. Each write is followed by a full re-read, never a local patch.

func (v *View) AddVitals(ctx context.Context, obs clinical.VitalsObservation) (*Snapshot, error) {
	if err := v.api.AddVitals(ctx, v.patientID, obs); err != nil {
		return nil, err
	}
	v.Invalidate(ResourceVitals)
	return v.Refresh(ctx)
}

func (v *View) AddDiagnosis(ctx context.Context, rec clinical.DiagnosisRecord) (*Snapshot, error) {
	if err := v.api.AddDiagnosis(ctx, v.patientID, rec); err != nil {
		return nil, err
	}
	v.Invalidate(ResourceDiagnoses)
	return v.Refresh(ctx)
}

// AddBill recomputes the total from unit cost and quantity before
// submission; the client never trusts a caller-supplied total.
func (v *View) AddBill(ctx context.Context, bill clinical.BilledService) (*Snapshot, error) {
	bill.TotalCost = bill.UnitCost * float64(bill.Quantity)
	if err := v.api.AddBill(ctx, v.patientID, bill); err != nil {
		return nil, err
	}
	v.Invalidate(ResourceBills)
	return v.Refresh(ctx)
}

func (v *View) UpdateMedicalHistory(ctx context.Context, history string) (*Snapshot, error) {
	upd := clinical.PatientUpdate{MedicalHistory: &history}
	if _, err := v.api.UpdatePatient(ctx, v.patientID, upd); err != nil {
		return nil, err
	}
	v.Invalidate(ResourceProfile)
	return v.Refresh(ctx)
}
