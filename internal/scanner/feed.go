package scanner

import (
	"bufio"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"
)

// FeedSource supplies frames from a stream of barcode values, one per line.
// It stands in for a camera when the client runs against a keyboard-wedge
// scanner or a piped code list. Blank lines are skipped.
type FeedSource struct {
	r io.Reader

	mu     sync.Mutex
	open   bool
	frames chan string
}

func NewFeedSource(r io.Reader) *FeedSource {
	return &FeedSource{r: r}
}

func (s *FeedSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return errors.New("feed source already open")
	}
	s.open = true

	frames := make(chan string)
	s.frames = frames
	go func() {
		defer close(frames)
		lines := bufio.NewScanner(s.r)
		for lines.Scan() {
			value := strings.TrimSpace(lines.Text())
			if value == "" {
				continue
			}
			frames <- value
		}
	}()
	return nil
}

func (s *FeedSource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	frames := s.frames
	s.mu.Unlock()
	if frames == nil {
		return nil, errors.New("feed source not open")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case value, ok := <-frames:
		if !ok {
			return nil, ErrSourceExhausted
		}
		return &codeFrame{value: value}, nil
	}
}

func (s *FeedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.frames = nil
	return nil
}

// codeFrame is a one-pixel frame carrying an already-decoded value.
type codeFrame struct {
	value string
}

func (f *codeFrame) ColorModel() color.Model { return color.GrayModel }
func (f *codeFrame) Bounds() image.Rectangle { return image.Rect(0, 0, 1, 1) }
func (f *codeFrame) At(x, y int) color.Color { return color.Gray{} }

// FeedDetector pairs with FeedSource: it reads the value straight off the
// frame instead of running image decoding.
type FeedDetector struct{}

func NewFeedDetector() *FeedDetector { return &FeedDetector{} }

func (d *FeedDetector) Detect(img image.Image) (*Detection, error) {
	frame, ok := img.(*codeFrame)
	if !ok {
		return nil, ErrNoCode
	}
	return &Detection{Value: frame.value, Format: "FEED"}, nil
}
