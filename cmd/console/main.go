// The console is the operator's terminal surface for the clinical backend:
// roster listing, session lifecycle commands and the patient dossier.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/auralis-health/clinical-console/internal/clinical"
	"github.com/auralis-health/clinical-console/internal/config"
	"github.com/auralis-health/clinical-console/internal/dossier"
	"github.com/auralis-health/clinical-console/internal/lifecycle"
	"github.com/auralis-health/clinical-console/internal/session"
)

const usage = `usage: console <command> [flags]

commands:
  roster                                 list sessions for the current actor
  book -patient ID -doctor ID -date D -time T [-type S] [-notes S]
  approve -id SESSION                    Pending -> Approved
  complete -id SESSION                   Approved -> Completed
  cancel -id SESSION -reason TEXT        any active state -> Cancelled
  reopen -id SESSION                     administrative reset to Pending
  dossier -patient ID                    consolidated patient view

identity comes from CONSOLE_EMAIL, CONSOLE_USER_ID and CONSOLE_ROLE.`

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	client := clinical.New(cfg.APIBaseURL,
		clinical.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		clinical.WithLogger(log),
	)

	mgr := session.NewManager(&session.MockProvider{
		DefaultRole: getenv("CONSOLE_ROLE", clinical.RoleDoctor),
		FixedID:     os.Getenv("CONSOLE_USER_ID"),
	}, log)

	sess, err := mgr.Login(ctx, session.Credentials{
		Email:    getenv("CONSOLE_EMAIL", "doctor@auralis.dev"),
		Password: "console",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
	defer func() { _ = mgr.Logout(context.Background()) }()

	roster := lifecycle.NewRoster(client, sess, log)
	ctrl := lifecycle.NewController(client, sess, roster, log)

	switch os.Args[1] {
	case "roster":
		runRoster(ctx, roster)
	case "book":
		runBook(ctx, client, os.Args[2:])
	case "approve", "complete", "cancel", "reopen":
		runTransition(ctx, roster, ctrl, os.Args[1], os.Args[2:])
	case "dossier":
		runDossier(ctx, client, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func runRoster(ctx context.Context, roster *lifecycle.Roster) {
	sessions, err := roster.Load(ctx)
	if err != nil {
		fatal(err)
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return
	}
	for _, s := range sessions {
		line := fmt.Sprintf("%s  %s %s  %-10s  %s with %s", s.ID, s.Date, s.Time, s.Status, s.PatientName, s.DoctorName)
		if s.Status == clinical.StatusCancelled && s.CancellationReason != "" {
			line += "  (" + s.CancellationReason + ")"
		}
		fmt.Println(line)
	}
}

func runBook(ctx context.Context, client *clinical.Client, args []string) {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	patient := fs.String("patient", "", "patient id")
	doctor := fs.String("doctor", "", "doctor id")
	date := fs.String("date", "", "date YYYY-MM-DD")
	timeOfDay := fs.String("time", "", "time HH:MM")
	svcType := fs.String("type", "Consultation", "service type")
	notes := fs.String("notes", "", "booking notes")
	_ = fs.Parse(args)

	if *patient == "" || *doctor == "" || *date == "" || *timeOfDay == "" {
		fatal(fmt.Errorf("book: -patient, -doctor, -date and -time are required"))
	}

	s, err := client.BookSession(ctx, clinical.BookingRequest{
		PatientID: *patient,
		DoctorID:  *doctor,
		Date:      *date,
		Time:      *timeOfDay,
		Type:      *svcType,
		Notes:     *notes,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("booked %s (%s %s, status %s)\n", s.ID, s.Date, s.Time, s.Status)
}

func runTransition(ctx context.Context, roster *lifecycle.Roster, ctrl *lifecycle.Controller, cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	id := fs.String("id", "", "session id")
	reason := fs.String("reason", "", "cancellation reason")
	_ = fs.Parse(args)

	if *id == "" {
		fatal(fmt.Errorf("%s: -id is required", cmd))
	}

	if _, err := roster.Load(ctx); err != nil {
		fatal(err)
	}
	target, ok := roster.Get(*id)
	if !ok {
		fatal(fmt.Errorf("session %s is not on your roster", *id))
	}

	var err error
	switch cmd {
	case "approve":
		err = ctrl.Approve(ctx, target)
	case "complete":
		err = ctrl.Complete(ctx, target)
	case "cancel":
		err = ctrl.Cancel(ctx, target, *reason)
	case "reopen":
		err = ctrl.Reopen(ctx, target)
	}
	if err != nil {
		fatal(err)
	}

	sessions, err := roster.Load(ctx)
	if err != nil {
		fatal(err)
	}
	for _, s := range sessions {
		if s.ID == *id {
			fmt.Printf("%s is now %s\n", s.ID, s.Status)
			return
		}
	}
	fmt.Printf("%s transitioned\n", *id)
}

func runDossier(ctx context.Context, client *clinical.Client, args []string) {
	fs := flag.NewFlagSet("dossier", flag.ExitOnError)
	patient := fs.String("patient", "", "patient id")
	_ = fs.Parse(args)

	if *patient == "" {
		fatal(fmt.Errorf("dossier: -patient is required"))
	}

	view := dossier.NewView(ctx, client, *patient)
	defer view.Close()

	snap, err := view.Load(ctx)
	if err != nil {
		fatal(err)
	}

	p := snap.Profile
	fmt.Printf("%s  (%d, %s, blood %s)\n", p.Name, p.Age, p.Gender, p.BloodType)
	fmt.Printf("ward %s, acuity %s\n", p.Ward, p.Status)
	if h := strings.TrimSpace(p.MedicalHistory); h != "" {
		fmt.Println("history:", h)
	}

	if latest, ok := dossier.Latest(snap.Vitals); ok {
		fmt.Printf("current vitals: HR %d, BP %d/%d, temp %.1f, SpO2 %d%%, RR %d\n",
			latest.HeartRate, latest.Systolic, latest.Diastolic, latest.Temp, latest.SpO2, latest.RespRate)
	}
	fmt.Printf("observations: %d (charting last %d)\n", len(snap.Vitals), len(dossier.TrendWindow(snap.Vitals, dossier.ChartWindow)))
	fmt.Printf("diagnoses: %d, bills: %d, paid revenue: %.2f\n",
		len(snap.Diagnoses), len(snap.Bills), dossier.PaidRevenue(snap.Bills))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
