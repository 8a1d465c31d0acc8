// Command console is the staff console for the housepass backend: sign in,
// manage events, review orders, curate the gallery, and pull the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"housepass/internal/auth/credstore"
	"housepass/internal/auth/session"
	"housepass/internal/checkin"
	"housepass/internal/platform/config"
	"housepass/internal/platform/logger"
	"housepass/internal/ticketing/events"
	"housepass/internal/ticketing/gallery"
	"housepass/internal/ticketing/orders"
	"housepass/internal/ticketing/stats"
	"housepass/internal/transport"
	"housepass/pkg/apierrors"
)

const usage = `usage: console <command> [flags]

commands:
  login      -email -password   sign in and store the session
  logout                        sign out and clear stored credentials
  whoami                        show the signed-in staff profile
  dashboard                     sales and attendance summary
  events     list | delete -id
  orders     list [-status] [-search] | status -id -status | resend -id
  gallery    list
  stats                         raw dashboard numbers
`

type app struct {
	cfg      config.Client
	session  *session.Manager
	events   *events.Service
	orders   *orders.Service
	gallery  *gallery.Service
	stats    *stats.Service
	checkins *checkin.Service
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	store := credstore.NewFileStore(cfg.CredentialFile(), cfg.MachineKeyFile(),
		credstore.WithLogger(log))
	mgr := session.NewManager(store, cfg.BaseURL,
		session.WithLogger(log),
		session.WithTimeout(cfg.RequestTimeout),
	)
	gateway := transport.NewClient(cfg.BaseURL, mgr,
		transport.WithLogger(log),
		transport.WithTimeout(cfg.RequestTimeout),
	)

	a := &app{
		cfg:      cfg,
		session:  mgr,
		events:   events.NewService(gateway, events.WithLogger(log)),
		orders:   orders.NewService(gateway, orders.WithLogger(log)),
		gallery:  gallery.NewService(gateway, gallery.WithLogger(log)),
		stats:    stats.NewService(gateway),
		checkins: checkin.NewService(gateway, checkin.WithLogger(log)),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mgr.Initialize(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, apierrors.Message(err))
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		fmt.Println("signed out")
		return nil
	case "whoami":
		return a.whoami()
	case "dashboard":
		return a.dashboard(ctx)
	case "events":
		return a.runEvents(ctx, args)
	case "orders":
		return a.runOrders(ctx, args)
	case "gallery":
		return a.runGallery(ctx, args)
	case "stats":
		return a.showStats(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "staff email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	figure.NewFigure("housepass", "cybermedium", true).Print()
	if user := a.session.CurrentUser(); user != nil {
		fmt.Printf("\nsigned in as %s (%s)\n", user.Name, user.Role)
	}
	return nil
}

func (a *app) whoami() error {
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not signed in")
	}
	user := a.session.CurrentUser()
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	if exp := a.session.TokenExpiry(); !exp.IsZero() {
		fmt.Printf("token expires %s\n", humanize.Time(exp))
	}
	return nil
}

// dashboard fans out the four reads concurrently; any single failure fails
// the whole view.
func (a *app) dashboard(ctx context.Context) error {
	var (
		summary   *statsResult
		recent    []checkin.Record
		openCount int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.stats.Fetch(ctx)
		if err != nil {
			return err
		}
		summary = &statsResult{s.TotalEvents, s.TotalOrders, s.TotalCheckins, s.TotalRevenueCents}
		return nil
	})
	g.Go(func() error {
		records, err := a.checkins.Recent(ctx)
		if err != nil {
			return err
		}
		recent = records
		return nil
	})
	g.Go(func() error {
		pending, err := a.orders.List(ctx, orders.Filter{Status: "pending"})
		if err != nil {
			return err
		}
		openCount = len(pending)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("events:    %s\n", humanize.Comma(int64(summary.events)))
	fmt.Printf("orders:    %s (%s pending)\n",
		humanize.Comma(int64(summary.orders)), humanize.Comma(int64(openCount)))
	fmt.Printf("check-ins: %s\n", humanize.Comma(int64(summary.checkins)))
	fmt.Printf("revenue:   $%s\n", humanize.CommafWithDigits(float64(summary.revenueCents)/100, 2))

	if len(recent) > 0 {
		fmt.Println("\nrecent check-ins:")
		for _, r := range recent {
			fmt.Printf("  %-12s %-24s %s\n", r.OrderNumber, r.CustomerName, humanize.Time(r.CheckedInAt))
		}
	}
	return nil
}

type statsResult struct {
	events, orders, checkins int
	revenueCents             int64
}

func (a *app) runEvents(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		list, err := a.events.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tVENUE\tSTARTS\tSTATUS")
		for _, e := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Title, e.Venue, e.StartsAt.Format("2006-01-02 15:04"), e.Status)
		}
		return w.Flush()
	case "delete":
		fs := flag.NewFlagSet("events delete", flag.ExitOnError)
		id := fs.String("id", "", "event id")
		_ = fs.Parse(args[1:])
		return a.events.Delete(ctx, *id)
	default:
		return fmt.Errorf("unknown events subcommand %q", args[0])
	}
}

func (a *app) runOrders(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("orders list", flag.ExitOnError)
		status := fs.String("status", "", "filter by status")
		search := fs.String("search", "", "search customer name/email")
		_ = fs.Parse(args[1:])

		list, err := a.orders.List(ctx, orders.Filter{Status: *status, Search: *search})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NUMBER\tCUSTOMER\tSTATUS\tQTY\tTOTAL\tCHECKED IN")
		for _, o := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%s\t%v\n",
				o.OrderNumber, o.CustomerName, o.Status, o.Quantity,
				humanize.CommafWithDigits(float64(o.TotalCents)/100, 2), o.CheckedIn)
		}
		return w.Flush()
	case "status":
		fs := flag.NewFlagSet("orders status", flag.ExitOnError)
		id := fs.String("id", "", "order id")
		status := fs.String("status", "", "new status")
		_ = fs.Parse(args[1:])

		updated, err := a.orders.UpdateStatus(ctx, *id, *status)
		if err != nil {
			return err
		}
		fmt.Printf("order %s is now %s\n", updated.OrderNumber, updated.Status)
		return nil
	case "resend":
		fs := flag.NewFlagSet("orders resend", flag.ExitOnError)
		id := fs.String("id", "", "order id")
		_ = fs.Parse(args[1:])

		if err := a.orders.ResendEmail(ctx, *id); err != nil {
			return err
		}
		fmt.Println("confirmation email queued")
		return nil
	default:
		return fmt.Errorf("unknown orders subcommand %q", args[0])
	}
}

func (a *app) runGallery(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		list, err := a.gallery.List(ctx)
		if err != nil {
			return err
		}
		for _, g := range list {
			fmt.Printf("%-6s %-30s %s\n", g.ID, g.Title, g.ImageURL)
		}
		return nil
	default:
		return fmt.Errorf("unknown gallery subcommand %q", args[0])
	}
}

func (a *app) showStats(ctx context.Context) error {
	s, err := a.stats.Fetch(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("totalEvents=%d totalOrders=%d totalCheckins=%d totalRevenueCents=%d\n",
		s.TotalEvents, s.TotalOrders, s.TotalCheckins, s.TotalRevenueCents)
	return nil
}
