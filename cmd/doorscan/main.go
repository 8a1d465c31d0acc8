// Command doorscan runs one door check-in station: manual order-number
// entry or a networked QR scanner, driving the check-in flow against the
// backend. A local HTTP listener exposes health and Prometheus metrics for
// the venue ops box.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"housepass/internal/auth/credstore"
	authmetrics "housepass/internal/auth/metrics"
	"housepass/internal/auth/session"
	"housepass/internal/checkin"
	"housepass/internal/checkin/flow"
	checkinmetrics "housepass/internal/checkin/metrics"
	"housepass/internal/checkin/scanner"
	"housepass/internal/platform/config"
	"housepass/internal/platform/logger"
	"housepass/internal/transport"
	transportmetrics "housepass/internal/transport/metrics"
	"housepass/internal/transport/tracer"
	"housepass/pkg/apierrors"
	"housepass/pkg/circuit"
)

func main() {
	metricsAddr := flag.String("metrics-addr", ":9920", "local health/metrics listen address")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	store := credstore.NewFileStore(cfg.CredentialFile(), cfg.MachineKeyFile(),
		credstore.WithLogger(log))
	mgr := session.NewManager(store, cfg.BaseURL,
		session.WithLogger(log),
		session.WithTimeout(cfg.RequestTimeout),
		session.WithMetrics(authmetrics.New(nil)),
	)

	// Venue links are flaky; fail fast when the backend drops instead of
	// stacking 30s timeouts at the door.
	breaker := circuit.New()
	gateway := transport.NewClient(cfg.BaseURL, mgr,
		transport.WithLogger(log),
		transport.WithTimeout(cfg.RequestTimeout),
		transport.WithBreaker(breaker),
		transport.WithTracer(tracer.NewOTel()),
		transport.WithMetrics(transportmetrics.New(nil)),
	)

	service := checkin.NewService(gateway,
		checkin.WithLogger(log),
		checkin.WithMetrics(checkinmetrics.New(nil)),
	)

	var opts []flow.Option
	opts = append(opts, flow.WithLogger(log))
	if cfg.ScannerURL != "" {
		url := cfg.ScannerURL
		opts = append(opts, flow.WithScannerOpener(func(ctx context.Context) (flow.ScannerFeed, error) {
			feed, err := scanner.Open(ctx, url, scanner.WithLogger(log))
			if err != nil {
				return nil, err
			}
			return feed, nil
		}))
	}
	controller := flow.NewController(service, opts...)
	defer controller.Close()

	go serveOps(*metricsAddr, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mgr.Initialize(ctx)
	if !mgr.IsAuthenticated() {
		fmt.Fprintln(os.Stderr, "not signed in; run `console login` first")
		os.Exit(1)
	}
	user := mgr.CurrentUser()
	log.Info("door station ready", "staff", user.Email, "backend", cfg.BaseURL)

	go func() {
		for err := range controller.ScannerErrs() {
			fmt.Printf("\n!! %s\n> ", apierrors.Message(err))
		}
	}()

	runStation(ctx, controller)
}

// serveOps exposes /healthz and /metrics on the local ops listener.
func serveOps(addr string, log *slog.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("ops listener failed", "error", err)
	}
}

// runStation is the operator loop: type an order number to verify, y to
// confirm, r to reset, scan/manual to switch input mode, q to quit.
func runStation(ctx context.Context, controller *flow.Controller) {
	in := bufio.NewScanner(os.Stdin)
	fmt.Print("door station — order number to verify, y confirm, r reset, scan/manual, q quit\n> ")

	for in.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "q", "quit":
			return
		case "r", "reset":
			controller.Reset()
		case "y", "yes":
			if err := controller.Confirm(ctx); err != nil && errors.Is(err, flow.ErrNotVerified) {
				fmt.Println("nothing verified to confirm")
			}
		case "scan":
			if err := controller.SetMode(ctx, flow.ModeScan); err != nil {
				fmt.Println(apierrors.Message(err))
			}
		case "manual":
			_ = controller.SetMode(ctx, flow.ModeManual)
		case "":
		default:
			_ = controller.Verify(ctx, line)
		}
		render(controller.Snapshot())
		fmt.Print("> ")
	}
}

func render(attempt flow.Attempt) {
	switch attempt.Phase {
	case flow.PhaseIdle:
		fmt.Println("ready")
	case flow.PhaseLoading:
		fmt.Println("...")
	case flow.PhaseVerified:
		o := attempt.Order
		fmt.Printf("VERIFIED  %s — %s x%d (%s)  confirm? [y]\n",
			o.OrderNumber, o.CustomerName, o.Quantity, o.EventTitle)
	case flow.PhaseAlreadyChecked:
		o := attempt.Order
		at := "earlier"
		if o.CheckedInAt != nil {
			at = o.CheckedInAt.Format("15:04")
		}
		fmt.Printf("ALREADY CHECKED IN  %s — %s (at %s)\n", o.OrderNumber, o.CustomerName, at)
	case flow.PhaseSuccess:
		fmt.Printf("OK  %s checked in\n", attempt.Order.OrderNumber)
	case flow.PhaseError:
		fmt.Printf("ERROR  %s\n", attempt.ErrMessage)
	}
}
