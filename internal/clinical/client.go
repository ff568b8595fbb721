package clinical

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// Client translates each domain operation into one HTTP call against the
// clinical backend and returns either a decoded payload or an *APIError.
// It applies no retries and no caching; resilience is the caller's concern.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody matches the backend's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// do issues one request and decodes a 2xx body into out (when non-nil).
// Any non-2xx response becomes an *APIError carrying the server message if
// one was sent, else the operation's generic failure label.
func (c *Client) do(ctx context.Context, method, path string, body, out any, op string) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &APIError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "failed to " + op
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
			msg = eb.Error
			if eb.Details != "" {
				msg += ": " + eb.Details
			}
		}
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("backend call failed")
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Sessions

func (c *Client) ListSessions(ctx context.Context, userID, role string) ([]Session, error) {
	q := url.Values{"user_id": {userID}, "role": {role}}
	var out []Session
	if err := c.do(ctx, http.MethodGet, "/appointments?"+q.Encode(), nil, &out, "fetch appointments"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BookSession(ctx context.Context, req BookingRequest) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/appointments", req, &out, "book appointment"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSession(ctx context.Context, id string, upd SessionUpdate) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPut, "/appointments/"+id, upd, &out, "update appointment"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patients

func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	var out []Patient
	if err := c.do(ctx, http.MethodGet, "/patients", nil, &out, "fetch patients"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodGet, "/patients/"+id, nil, &out, "fetch patient details"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdmitPatient(ctx context.Context, p Patient) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodPost, "/patients", p, &out, "admit patient"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id string, upd PatientUpdate) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, http.MethodPut, "/patients/"+id, upd, &out, "update patient"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListVitals(ctx context.Context, patientID string) ([]VitalsObservation, error) {
	var out []VitalsObservation
	if err := c.do(ctx, http.MethodGet, "/patients/"+patientID+"/vitals", nil, &out, "fetch vitals"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddVitals(ctx context.Context, patientID string, obs VitalsObservation) error {
	return c.do(ctx, http.MethodPost, "/patients/"+patientID+"/vitals", obs, nil, "record vitals")
}

func (c *Client) ListDiagnoses(ctx context.Context, patientID string) ([]DiagnosisRecord, error) {
	var out []DiagnosisRecord
	if err := c.do(ctx, http.MethodGet, "/patients/"+patientID+"/diagnosis", nil, &out, "fetch diagnosis"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddDiagnosis(ctx context.Context, patientID string, rec DiagnosisRecord) error {
	return c.do(ctx, http.MethodPost, "/patients/"+patientID+"/diagnosis", rec, nil, "submit diagnosis")
}

func (c *Client) ListBills(ctx context.Context, patientID string) ([]BilledService, error) {
	var out []BilledService
	if err := c.do(ctx, http.MethodGet, "/patients/"+patientID+"/bills", nil, &out, "fetch bills"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddBill(ctx context.Context, patientID string, bill BilledService) error {
	return c.do(ctx, http.MethodPost, "/patients/"+patientID+"/bills", bill, nil, "generate bill")
}

func (c *Client) PatientTimeline(ctx context.Context, patientID string) ([]TimelineEntry, error) {
	var out []TimelineEntry
	if err := c.do(ctx, http.MethodGet, "/patients/"+patientID+"/timeline", nil, &out, "fetch timeline"); err != nil {
		return nil, err
	}
	return out, nil
}

// Doctors

func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	if err := c.do(ctx, http.MethodGet, "/doctors", nil, &out, "fetch clinical staff"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	var out Doctor
	if err := c.do(ctx, http.MethodGet, "/doctors/"+id, nil, &out, "fetch doctor details"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	var out Doctor
	if err := c.do(ctx, http.MethodPost, "/doctors", d, &out, "register doctor"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDoctor(ctx context.Context, id string, d Doctor) (*Doctor, error) {
	var out Doctor
	if err := c.do(ctx, http.MethodPut, "/doctors/"+id, d, &out, "update doctor profile"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListReviews(ctx context.Context, doctorID string) ([]Review, error) {
	var out []Review
	if err := c.do(ctx, http.MethodGet, "/doctors/"+doctorID+"/reviews", nil, &out, "fetch reviews"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SubmitReview(ctx context.Context, doctorID string, rev Review) error {
	return c.do(ctx, http.MethodPost, "/doctors/"+doctorID+"/reviews", rev, nil, "submit review")
}

// Admin

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out, "fetch users"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+id, nil, nil, "delete user")
}

func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &out, "fetch admin stats"); err != nil {
		return nil, err
	}
	return &out, nil
}
