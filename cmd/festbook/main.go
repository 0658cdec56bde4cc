package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"festbook/internal/auth"
	"festbook/internal/booking"
	"festbook/internal/config"
	"festbook/internal/events"
	"festbook/internal/export"
	"festbook/internal/importer"
	"festbook/internal/metrics"
	"festbook/internal/models"
	"festbook/internal/session"
	"festbook/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("FESTBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	metrics.Register()

	bus := events.NewBus()
	bus.Subscribe(events.TypeBookingCreated, func(e events.Event) {
		if b, ok := e.Payload.(models.Booking); ok {
			logger.Debug().Str("booking_id", b.ID).Str("venue_id", b.VenueID).Msg("event: booking created")
		}
	})
	bus.Subscribe(events.TypeBookingDeleted, func(e events.Event) {
		if b, ok := e.Payload.(models.Booking); ok {
			logger.Debug().Str("booking_id", b.ID).Msg("event: booking deleted")
		}
	})

	st, err := store.Open(cfg.Database.Path, bus, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	app := &application{
		cfg:      cfg,
		store:    st,
		sessions: session.NewManager(cfg.Session.Path, st, logger),
		bookings: booking.NewService(st, cfg.Booking.MaxActivePerGroup, logger),
		importer: importer.New(st, logger),
		gate:     auth.NewGate(cfg.Admin.AccountHash, cfg.Admin.PasswordHash, logger),
		logger:   logger,
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if err := app.run(os.Args[1], os.Args[2:]); err != nil {
		logger.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

type application struct {
	cfg      *config.Config
	store    *store.Store
	sessions *session.Manager
	bookings *booking.Service
	importer *importer.Importer
	gate     *auth.Gate
	logger   zerolog.Logger
}

func (a *application) run(command string, args []string) error {
	switch command {
	case "login":
		if len(args) != 1 {
			return fmt.Errorf("usage: login <group-id>")
		}
		identity, err := a.sessions.Login(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", identity.Name, identity.GroupID)
		return nil

	case "logout":
		a.sessions.Logout()
		return nil

	case "book":
		if len(args) != 1 {
			return fmt.Errorf("usage: book <venue-id>")
		}
		identity, ok := a.sessions.Current()
		if !ok {
			return fmt.Errorf("no active session, run login first")
		}
		booked, err := a.bookings.Book(args[0], identity, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("booked %s (%s)\n", booked.VenueName, booked.ID)
		return nil

	case "cancel":
		if len(args) != 1 {
			return fmt.Errorf("usage: cancel <booking-id>")
		}
		return a.bookings.Cancel(args[0])

	case "import-venues", "import-groups":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <file>", command)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var count int
		if command == "import-venues" {
			count, err = a.importer.ImportVenues(string(data))
		} else {
			count, err = a.importer.ImportGroups(string(data))
		}
		if err != nil {
			return err
		}
		fmt.Printf("imported %d records\n", count)
		return nil

	case "export-csv", "export-xlsx":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <file>", command)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		snap := a.store.Snapshot()
		if command == "export-csv" {
			return export.WriteCSV(f, snap)
		}
		return export.WriteXLSX(f, snap)

	case "admin-login":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin-login <account> <password>")
		}
		if err := a.gate.Authenticate(args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("admin access granted")
		return nil

	case "backup":
		return store.NewBackupService(a.store.Path(), a.cfg.Backup, a.logger).Run()

	case "reset":
		return a.store.Reset()

	case "show":
		a.show()
		return nil
	}

	usage()
	return fmt.Errorf("unknown command %q", command)
}

func (a *application) show() {
	snap := a.store.Snapshot()
	fmt.Printf("window: %s .. %s\n", snap.Settings.OpenTime, snap.Settings.CloseTime)
	for _, v := range snap.Venues {
		marker := ""
		if !booking.IsVenueVisible(v) {
			marker = " (hidden)"
		} else if v.OverCapacity() {
			marker = " (over capacity)"
		}
		fmt.Printf("venue %-12s %-30s %s %d/%d %s%s\n",
			v.ID, v.Name, v.Date, v.Registered, v.Capacity, v.Status, marker)
	}
	for _, g := range snap.Groups {
		fmt.Printf("group %-12s %s\n", g.ID, g.Name)
	}
	for _, b := range snap.Bookings {
		fmt.Printf("booking %-14s %s by %s at %s\n",
			b.ID, b.VenueName, b.GroupID, b.Time().Format("2006-01-02 15:04:05"))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: festbook <command> [args]

  login <group-id>               resolve and store the acting identity
  logout                         clear the stored identity
  book <venue-id>                book a venue as the logged-in group
  cancel <booking-id>            delete a booking
  import-venues <file>           bulk-load venues from tab-separated text
  import-groups <file>           merge groups from tab-separated text
  export-csv <file>              export bookings as CSV (UTF-8 BOM)
  export-xlsx <file>             export bookings as an Excel workbook
  admin-login <account> <pwd>    check the admin credential gate
  backup                         copy the snapshot database aside
  reset                          restore the default dataset
  show                           print the current snapshot`)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
