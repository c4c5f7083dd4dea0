package scanner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/example/grocery-scan/internal/events"
)

// StatusType is the severity class of the user-facing status line.
type StatusType string

const (
	StatusInfo    StatusType = "info"
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
)

// Status is a snapshot of the scan session state.
type Status struct {
	Scanning    bool
	Loading     bool
	LastScanned string
	Message     string
	Type        StatusType
}

// Config tunes the acquisition loop.
type Config struct {
	// Interval between frame samples.
	Interval time.Duration
	// Cooldown window during which a value is not re-processed.
	Cooldown time.Duration
	// Preferred capture geometry, honored by sources that support it.
	Width, Height int
}

// DefaultConfig matches the production scanner settings.
func DefaultConfig() Config {
	return Config{
		Interval: 100 * time.Millisecond,
		Cooldown: 3 * time.Second,
		Width:    1280,
		Height:   720,
	}
}

// Scanner drives the frame-sampling cycle: grab a frame, decode, dedupe,
// publish. All failures stay inside the loop and surface only on the status
// line; a bad frame never stops the session.
type Scanner struct {
	source    FrameSource
	detector  Detector
	bus       *events.Bus
	sessionID string
	config    Config

	mu       sync.Mutex
	status   Status
	seen     *cooldownSet
	starting bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// New wires a scanner. A nil source or detector means the platform cannot
// scan; Start then reports "not supported" and never begins capture.
func New(sessionID string, source FrameSource, detector Detector, bus *events.Bus, config Config) *Scanner {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultConfig().Cooldown
	}
	s := &Scanner{
		source:    source,
		detector:  detector,
		bus:       bus,
		sessionID: sessionID,
		config:    config,
		seen:      newCooldownSet(config.Cooldown),
	}
	if !s.Supported() {
		s.status = Status{Message: "Barcode scanning is not supported on this device", Type: StatusError}
	}
	return s
}

// Supported reports whether the platform has both a frame source and a
// decoder.
func (s *Scanner) Supported() bool {
	return s.source != nil && s.detector != nil
}

// Status returns a snapshot of the session state.
func (s *Scanner) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetLoading flags an in-flight lookup on the status line.
func (s *Scanner) SetLoading(loading bool) {
	s.mu.Lock()
	s.status.Loading = loading
	s.mu.Unlock()
}

// Report sets the status message and severity.
func (s *Scanner) Report(message string, statusType StatusType) {
	s.mu.Lock()
	s.status.Message = message
	s.status.Type = statusType
	s.mu.Unlock()
}

// Start acquires the frame source and begins sampling. Failures are
// terminal for this attempt only: they land on the status line and a later
// Start may succeed. Start never returns an error and never panics.
func (s *Scanner) Start(ctx context.Context) {
	if !s.Supported() {
		s.Report("Barcode scanning is not supported on this device", StatusError)
		return
	}

	// The starting flag covers the window between this check and the open,
	// so a concurrent Start cannot acquire a second stream or clobber the
	// winner's status from its error branch.
	s.mu.Lock()
	if s.status.Scanning || s.starting {
		s.mu.Unlock()
		return
	}
	s.starting = true
	s.mu.Unlock()

	if cs, ok := s.source.(ConfigurableSource); ok && s.config.Width > 0 && s.config.Height > 0 {
		cs.Configure(s.config.Width, s.config.Height)
	}
	if err := s.source.Open(ctx); err != nil {
		log.Printf("[Scanner] Failed to open frame source: %v", err)
		s.mu.Lock()
		s.starting = false
		s.status.Scanning = false
		s.status.Message = "Camera unavailable: " + err.Error()
		s.status.Type = StatusError
		s.mu.Unlock()
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.starting = false
	s.cancel = cancel
	s.done = done
	s.status.Scanning = true
	s.status.Message = "Scanning for barcodes"
	s.status.Type = StatusInfo
	s.mu.Unlock()

	go s.loop(loopCtx, done)
}

// Stop halts sampling and releases the capture resource. Safe to call when
// not scanning and safe to call twice.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.status.Scanning {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	s.finish("Scanning stopped", StatusInfo)
}

// finish releases the source and marks the session stopped.
func (s *Scanner) finish(message string, statusType StatusType) {
	if err := s.source.Close(); err != nil {
		log.Printf("[Scanner] Failed to close frame source: %v", err)
	}
	s.mu.Lock()
	s.status.Scanning = false
	s.status.Message = message
	s.status.Type = statusType
	s.mu.Unlock()
}

// loop is the frame-sampling cycle.
func (s *Scanner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		img, err := s.source.Frame(ctx)
		if err != nil {
			if errors.Is(err, ErrSourceExhausted) {
				go s.stopFromLoop()
				return
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Scanner] Frame capture failed: %v", err)
			continue
		}

		detection, err := s.detector.Detect(img)
		if err != nil {
			if !errors.Is(err, ErrNoCode) {
				log.Printf("[Scanner] Detection failed on frame: %v", err)
			}
			continue
		}

		s.handleDetection(detection)
	}
}

// stopFromLoop transitions to stopped when the source runs out of frames.
// It runs outside the loop goroutine so Stop's done-wait cannot deadlock.
func (s *Scanner) stopFromLoop() {
	s.mu.Lock()
	if !s.status.Scanning {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	s.finish("Scanning stopped", StatusInfo)
}

// handleDetection dedupes the candidate and publishes it. The value enters
// the cooldown set before any downstream processing starts, so a second hit
// racing the first resolution is dropped.
func (s *Scanner) handleDetection(d *Detection) {
	if !s.seen.TryAdd(d.Value) {
		return
	}

	s.mu.Lock()
	s.status.LastScanned = d.Value
	s.status.Message = "Scanned " + d.Value
	s.status.Type = StatusInfo
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.PublishScan(events.ScanDetected{
			SessionID: s.sessionID,
			Barcode:   d.Value,
			Format:    d.Format,
			At:        time.Now(),
		})
	}
}
