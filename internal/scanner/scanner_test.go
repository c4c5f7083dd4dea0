package scanner

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/grocery-scan/internal/events"
)

// fakeSource serves a fixed blank frame and tracks open/close bookkeeping.
type fakeSource struct {
	mu        sync.Mutex
	open      bool
	openErr   error
	frameErr  error
	opens     int
	closes    int
	maxFrames int
	served    int
}

func (f *fakeSource) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	if f.open {
		return errors.New("already open")
	}
	f.open = true
	f.opens++
	return nil
}

func (f *fakeSource) Frame(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frameErr != nil {
		return nil, f.frameErr
	}
	if f.maxFrames > 0 && f.served >= f.maxFrames {
		return nil, ErrSourceExhausted
	}
	f.served++
	return image.NewGray(image.Rect(0, 0, 4, 4)), nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closes++
	return nil
}

// scriptedDetector returns each value once in sequence, then ErrNoCode.
type scriptedDetector struct {
	mu     sync.Mutex
	values []string
	next   int
	repeat bool
}

func (d *scriptedDetector) Detect(img image.Image) (*Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.values) == 0 {
		return nil, ErrNoCode
	}
	if d.next >= len(d.values) {
		if !d.repeat {
			return nil, ErrNoCode
		}
		d.next = 0
	}
	v := d.values[d.next]
	d.next++
	return &Detection{Value: v, Format: "EAN_13"}, nil
}

func fastConfig() Config {
	return Config{Interval: 5 * time.Millisecond, Cooldown: 120 * time.Millisecond}
}

func collectScans(bus *events.Bus) func() []string {
	var mu sync.Mutex
	var got []string
	bus.SubscribeScan(func(evt events.ScanDetected) {
		mu.Lock()
		got = append(got, evt.Barcode)
		mu.Unlock()
	})
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), got...)
	}
}

// ============================================
// Lifecycle Tests
// ============================================

func TestScanner_StartStop(t *testing.T) {
	source := &fakeSource{}
	s := New("s-1", source, &scriptedDetector{}, events.NewBus(), fastConfig())

	s.Start(context.Background())
	status := s.Status()
	assert.True(t, status.Scanning)
	assert.Equal(t, StatusInfo, status.Type)
	assert.Equal(t, "Scanning for barcodes", status.Message)

	s.Stop()
	status = s.Status()
	assert.False(t, status.Scanning)
	assert.Equal(t, "Scanning stopped", status.Message)
	assert.Equal(t, 1, source.opens)
	assert.Equal(t, 1, source.closes)
}

func TestScanner_StopWhenNotScanningIsNoop(t *testing.T) {
	source := &fakeSource{}
	s := New("s-1", source, &scriptedDetector{}, events.NewBus(), fastConfig())

	s.Stop()
	s.Stop()

	assert.Equal(t, 0, source.closes)
}

func TestScanner_DoubleStartHoldsSingleStream(t *testing.T) {
	source := &fakeSource{}
	s := New("s-1", source, &scriptedDetector{}, events.NewBus(), fastConfig())

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Equal(t, 1, source.opens)
	s.Stop()
}

func TestScanner_ConcurrentStartsOpenSourceOnce(t *testing.T) {
	source := &fakeSource{}
	s := New("s-1", source, &scriptedDetector{}, events.NewBus(), fastConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Start(context.Background())
		}()
	}
	wg.Wait()

	status := s.Status()
	assert.True(t, status.Scanning, "losing Start calls must not clobber the session")
	assert.Equal(t, StatusInfo, status.Type)

	source.mu.Lock()
	opens := source.opens
	source.mu.Unlock()
	assert.Equal(t, 1, opens)
	s.Stop()
}

func TestScanner_OpenFailureIsReportedNotFatal(t *testing.T) {
	source := &fakeSource{openErr: errors.New("permission denied")}
	s := New("s-1", source, &scriptedDetector{}, events.NewBus(), fastConfig())

	s.Start(context.Background())

	status := s.Status()
	assert.False(t, status.Scanning)
	assert.Equal(t, StatusError, status.Type)
	assert.Contains(t, status.Message, "permission denied")

	// A later attempt can succeed.
	source.openErr = nil
	s.Start(context.Background())
	assert.True(t, s.Status().Scanning)
	s.Stop()
}

func TestScanner_NotSupportedWithoutDetector(t *testing.T) {
	s := New("s-1", &fakeSource{}, nil, events.NewBus(), fastConfig())

	assert.False(t, s.Supported())
	assert.Equal(t, StatusError, s.Status().Type)

	source := &fakeSource{}
	s = New("s-1", source, nil, events.NewBus(), fastConfig())
	s.Start(context.Background())

	assert.False(t, s.Status().Scanning)
	assert.Equal(t, 0, source.opens, "capture must never start")
}

func TestScanner_SourceExhaustionStopsCleanly(t *testing.T) {
	source := &fakeSource{maxFrames: 3}
	s := New("s-1", source, &scriptedDetector{}, events.NewBus(), fastConfig())

	s.Start(context.Background())

	assert.Eventually(t, func() bool {
		return !s.Status().Scanning
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, source.closes)
}

// ============================================
// Detection / Dedup Tests
// ============================================

func TestScanner_PublishesDetections(t *testing.T) {
	bus := events.NewBus()
	scans := collectScans(bus)
	detector := &scriptedDetector{values: []string{"P001", "P002"}}
	s := New("s-1", &fakeSource{}, detector, bus, fastConfig())

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return len(scans()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"P001", "P002"}, scans())
	assert.Equal(t, "P002", s.Status().LastScanned)
}

func TestScanner_DuplicateWithinCooldownIgnored(t *testing.T) {
	bus := events.NewBus()
	scans := collectScans(bus)
	detector := &scriptedDetector{values: []string{"P001"}, repeat: true}
	s := New("s-1", &fakeSource{}, detector, bus, Config{
		Interval: 5 * time.Millisecond,
		Cooldown: time.Hour,
	})

	s.Start(context.Background())
	time.Sleep(80 * time.Millisecond)
	s.Stop()

	assert.Equal(t, []string{"P001"}, scans())
}

func TestScanner_RescannableAfterCooldown(t *testing.T) {
	bus := events.NewBus()
	scans := collectScans(bus)
	detector := &scriptedDetector{values: []string{"P001"}, repeat: true}
	s := New("s-1", &fakeSource{}, detector, bus, Config{
		Interval: 5 * time.Millisecond,
		Cooldown: 50 * time.Millisecond,
	})

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return len(scans()) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScanner_FrameErrorDoesNotStopLoop(t *testing.T) {
	bus := events.NewBus()
	scans := collectScans(bus)
	source := &fakeSource{frameErr: errors.New("bad frame")}
	detector := &scriptedDetector{values: []string{"P001"}}
	s := New("s-1", source, detector, bus, fastConfig())

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	assert.True(t, s.Status().Scanning, "loop survives frame errors")

	// Frames recover; detection resumes.
	source.mu.Lock()
	source.frameErr = nil
	source.mu.Unlock()

	assert.Eventually(t, func() bool {
		return len(scans()) == 1
	}, time.Second, 5*time.Millisecond)
	s.Stop()
}
