// Package flow implements the door check-in state machine driving one
// station: verify an order, confirm it, and reset for the next guest.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"housepass/internal/checkin"
	"housepass/internal/ticketing/models"
	"housepass/pkg/apierrors"
)

// Phase is the state of the current check-in attempt.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseLoading        Phase = "loading"
	PhaseVerified       Phase = "verified"
	PhaseSuccess        Phase = "success"
	PhaseAlreadyChecked Phase = "already_checked"
	PhaseError          Phase = "error"
)

// Mode selects the input source at the door.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeScan   Mode = "scan"
)

// ErrNotVerified is returned by Confirm outside the Verified phase. No
// call is made and no state changes.
var ErrNotVerified = errors.New("no verified order to confirm")

// successResetDelay is how long the Success screen holds before the
// station returns to Idle for the next guest.
const successResetDelay = 3 * time.Second

//go:generate mockgen -destination=mocks/flow_mock.go -package=mocks housepass/internal/checkin/flow Service,ScannerFeed

// Service is the check-in service slice the controller needs.
type Service interface {
	Verify(ctx context.Context, orderNumber string) (*models.Order, error)
	Process(ctx context.Context, orderNumber string) (*models.Order, error)
	Recent(ctx context.Context) ([]checkin.Record, error)
}

// ScannerFeed is an open code stream; the controller owns its release.
type ScannerFeed interface {
	Codes() <-chan string
	Errs() <-chan error
	Close()
}

// ScannerOpener acquires the scanner feed when the station enters scan
// mode.
type ScannerOpener func(ctx context.Context) (ScannerFeed, error)

// Attempt is a read-only snapshot of the current check-in attempt.
type Attempt struct {
	Input      string
	Phase      Phase
	Order      *models.Order
	ErrMessage string
}

// Controller serializes one station's check-in attempts. The mutex covers
// all state; the service calls run outside it.
type Controller struct {
	mu         sync.Mutex
	phase      Phase
	input      string
	order      *models.Order
	errMessage string
	mode       Mode
	recent     []checkin.Record

	feed     ScannerFeed
	feedDone chan struct{}

	resetTimer *time.Timer

	service     Service
	openScanner ScannerOpener
	scannerErrs chan error
	afterFunc   func(d time.Duration, f func()) *time.Timer
	logger      *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithScannerOpener enables scan mode with the given feed source.
func WithScannerOpener(open ScannerOpener) Option {
	return func(c *Controller) {
		c.openScanner = open
	}
}

// WithAfterFunc injects the timer source for tests.
func WithAfterFunc(afterFunc func(d time.Duration, f func()) *time.Timer) Option {
	return func(c *Controller) {
		if afterFunc != nil {
			c.afterFunc = afterFunc
		}
	}
}

// NewController creates a controller in manual mode, Idle.
func NewController(service Service, opts ...Option) *Controller {
	c := &Controller{
		phase:       PhaseIdle,
		mode:        ModeManual,
		service:     service,
		scannerErrs: make(chan error, 1),
		afterFunc:   time.AfterFunc,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify normalizes the raw input (trim, uppercase) and looks the order
// up. Empty input is a no-op. An order already flagged checked in lands in
// AlreadyChecked rather than Verified.
func (c *Controller) Verify(ctx context.Context, raw string) error {
	orderNumber := strings.ToUpper(strings.TrimSpace(raw))
	if orderNumber == "" {
		return nil
	}

	c.mu.Lock()
	if c.phase == PhaseLoading {
		c.mu.Unlock()
		return nil
	}
	c.stopResetTimer()
	c.input = orderNumber
	c.phase = PhaseLoading
	c.order = nil
	c.errMessage = ""
	c.mu.Unlock()

	order, err := c.service.Verify(ctx, orderNumber)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseError
		c.errMessage = apierrors.Message(err)
		return err
	}
	c.order = order
	if order.CheckedIn {
		c.phase = PhaseAlreadyChecked
	} else {
		c.phase = PhaseVerified
	}
	return nil
}

// Confirm checks the verified order in. Outside the Verified phase it is
// rejected without a call or a state change. Success holds for the reset
// delay, then the station returns to Idle on its own.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseVerified {
		c.mu.Unlock()
		return ErrNotVerified
	}
	orderNumber := c.input
	c.phase = PhaseLoading
	c.mu.Unlock()

	order, err := c.service.Process(ctx, orderNumber)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseError
		c.errMessage = apierrors.Message(err)
		return err
	}
	c.order = order
	c.phase = PhaseSuccess
	c.resetTimer = c.afterFunc(successResetDelay, c.resetAfterSuccess)
	go c.refreshRecent()
	return nil
}

// resetAfterSuccess fires from the timer; a new attempt started in the
// meantime wins.
func (c *Controller) resetAfterSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseSuccess {
		c.resetLocked()
	}
}

func (c *Controller) refreshRecent() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	records, err := c.service.Recent(ctx)
	if err != nil {
		c.logger.Warn("recent check-ins refresh failed", "error", err)
		return
	}
	c.mu.Lock()
	c.recent = records
	c.mu.Unlock()
}

// Reset returns the attempt to Idle from any phase.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.stopResetTimer()
	c.phase = PhaseIdle
	c.input = ""
	c.order = nil
	c.errMessage = ""
}

func (c *Controller) stopResetTimer() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

// SetMode switches the input source. The attempt always resets and any
// active feed is released first; entering scan mode then acquires the
// feed. Acquisition failure goes to ScannerErrs and leaves the station in
// manual mode — the phase is never touched by scanner trouble.
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	c.mu.Lock()
	c.resetLocked()
	c.releaseFeedLocked()
	c.mode = ModeManual
	c.mu.Unlock()

	if mode != ModeScan {
		return nil
	}

	if c.openScanner == nil {
		err := apierrors.New(apierrors.CodeScannerUnavailable, "Scanner unavailable. Use manual entry.")
		c.pushScannerErr(err)
		return err
	}
	feed, err := c.openScanner(ctx)
	if err != nil {
		c.pushScannerErr(err)
		return err
	}

	c.mu.Lock()
	c.mode = ModeScan
	c.feed = feed
	c.feedDone = make(chan struct{})
	c.mu.Unlock()

	go c.consumeFeed(feed, c.feedDone)
	return nil
}

// consumeFeed verifies scanned codes, but only while the station is Idle;
// codes arriving mid-attempt are dropped. Stream errors go to ScannerErrs.
func (c *Controller) consumeFeed(feed ScannerFeed, done chan struct{}) {
	defer close(done)
	codes, errs := feed.Codes(), feed.Errs()
	for {
		select {
		case code, ok := <-codes:
			if !ok {
				return
			}
			if c.Phase() != PhaseIdle {
				continue
			}
			if err := c.Verify(context.Background(), code); err != nil {
				c.logger.Warn("scanned code rejected", "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.pushScannerErr(err)
		}
	}
}

func (c *Controller) pushScannerErr(err error) {
	select {
	case c.scannerErrs <- err:
	default:
	}
}

func (c *Controller) releaseFeedLocked() {
	if c.feed != nil {
		c.feed.Close()
		c.feed = nil
		c.feedDone = nil
	}
}

// ScannerErrs surfaces scanner acquisition and stream failures. They never
// alter the check-in phase; the operator falls back to manual entry.
func (c *Controller) ScannerErrs() <-chan error { return c.scannerErrs }

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Mode returns the current input mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Snapshot returns a copy of the current attempt.
func (c *Controller) Snapshot() Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	attempt := Attempt{
		Input:      c.input,
		Phase:      c.phase,
		ErrMessage: c.errMessage,
	}
	if c.order != nil {
		order := *c.order
		attempt.Order = &order
	}
	return attempt
}

// Recent returns the cached recent check-ins.
func (c *Controller) Recent() []checkin.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]checkin.Record(nil), c.recent...)
}

// Close releases the scanner feed and stops timers. The controller is done
// after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopResetTimer()
	c.releaseFeedLocked()
}
