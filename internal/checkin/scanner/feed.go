// Package scanner streams QR codes from a networked scanner over a
// WebSocket. The feed is the door station's one acquired device resource;
// Open and Close bracket its lifetime and Close is safe on every exit path.
package scanner

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"housepass/pkg/apierrors"
)

const (
	codeBufferSize = 16
	pingInterval   = 30 * time.Second
)

const unavailableMessage = "Scanner unavailable. Use manual entry."

// Feed is an open scanner stream.
type Feed struct {
	conn   *ws.Conn
	codes  chan string
	errs   chan error
	cancel context.CancelFunc
	logger *slog.Logger

	closeOnce sync.Once
}

// Option configures Open.
type Option func(*Feed)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Open dials the scanner endpoint and starts the read pump. A dial failure
// is a scanner availability problem, not a check-in failure, and carries
// its own error code.
func Open(ctx context.Context, url string, opts ...Option) (*Feed, error) {
	f := &Feed{
		codes:  make(chan string, codeBufferSize),
		errs:   make(chan error, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeScannerUnavailable, unavailableMessage)
	}
	f.conn = conn

	pumpCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.readPump(pumpCtx)
	go f.pingPump(pumpCtx)

	return f, nil
}

// Codes delivers scanned codes. The channel closes when the feed ends, for
// any reason.
func (f *Feed) Codes() <-chan string { return f.codes }

// Errs delivers at most one terminal stream error. A clean Close delivers
// nothing.
func (f *Feed) Errs() <-chan error { return f.errs }

// readPump delivers scanned codes until the connection ends. Blank frames
// are dropped.
func (f *Feed) readPump(ctx context.Context) {
	defer close(f.codes)
	for {
		_, data, err := f.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Warn("scanner stream ended", "error", err)
				select {
				case f.errs <- apierrors.Wrap(err, apierrors.CodeScannerUnavailable, unavailableMessage):
				default:
				}
			}
			return
		}
		code := strings.TrimSpace(string(data))
		if code == "" {
			continue
		}
		select {
		case f.codes <- code:
		case <-ctx.Done():
			return
		}
	}
}

// pingPump keeps the connection alive across idle stretches at the door.
func (f *Feed) pingPump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := f.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the scanner connection. Safe to call more than once and
// from any exit path.
func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		f.cancel()
		_ = f.conn.Close(ws.StatusNormalClosure, "released")
	})
}
