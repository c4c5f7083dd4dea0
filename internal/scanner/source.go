package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "image/jpeg"
	_ "image/png"
)

// ErrSourceExhausted signals that a finite frame source has no more frames.
// The acquisition loop treats it as a clean end of session.
var ErrSourceExhausted = errors.New("frame source exhausted")

// FrameSource supplies camera frames. Implementations own an exclusive
// capture resource: Open acquires it, Close releases it, and a second Open
// without a Close must fail.
type FrameSource interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// ConfigurableSource is implemented by sources that can adjust their capture
// geometry. Configure is a hint, applied before Open; sources are free to
// deliver a different size.
type ConfigurableSource interface {
	Configure(width, height int)
}

// DirectorySource replays image files from a directory in lexical order, one
// per frame. It stands in for a live camera on platforms without one and in
// tests.
type DirectorySource struct {
	dir  string
	loop bool

	mu         sync.Mutex
	files      []string
	next       int
	open       bool
	maxW, maxH int
}

// NewDirectorySource creates a source over dir. With loop set, the sequence
// wraps around instead of exhausting.
func NewDirectorySource(dir string, loop bool) *DirectorySource {
	return &DirectorySource{dir: dir, loop: loop}
}

// Configure bounds the geometry of delivered frames. Larger images are
// subsampled on read; smaller ones pass through untouched.
func (s *DirectorySource) Configure(width, height int) {
	s.mu.Lock()
	s.maxW, s.maxH = width, height
	s.mu.Unlock()
}

func (s *DirectorySource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return errors.New("frame source already open")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to open frame directory: %w", err)
	}

	s.files = s.files[:0]
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			s.files = append(s.files, filepath.Join(s.dir, entry.Name()))
		}
	}
	sort.Strings(s.files)

	if len(s.files) == 0 {
		return fmt.Errorf("no image frames in %s", s.dir)
	}
	s.next = 0
	s.open = true
	return nil
}

func (s *DirectorySource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, errors.New("frame source is not open")
	}
	if s.next >= len(s.files) {
		if !s.loop {
			return nil, ErrSourceExhausted
		}
		s.next = 0
	}

	path := s.files[s.next]
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return subsample(img, s.maxW, s.maxH), nil
}

// subsample shrinks img by an integer stride until it fits maxW×maxH.
// Nearest-neighbor is enough: the decoder needs module-level detail, not
// smooth scaling.
func subsample(img image.Image, maxW, maxH int) image.Image {
	if maxW <= 0 || maxH <= 0 {
		return img
	}
	b := img.Bounds()
	stride := 1
	for (b.Dx()+stride-1)/stride > maxW || (b.Dy()+stride-1)/stride > maxH {
		stride++
	}
	if stride == 1 {
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, (b.Dx()+stride-1)/stride, (b.Dy()+stride-1)/stride))
	for y := out.Bounds().Min.Y; y < out.Bounds().Max.Y; y++ {
		for x := out.Bounds().Min.X; x < out.Bounds().Max.X; x++ {
			out.Set(x, y, img.At(b.Min.X+x*stride, b.Min.Y+y*stride))
		}
	}
	return out
}

func (s *DirectorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}
