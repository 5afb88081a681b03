// Package snapshot saves rendered frames to image files.
//
// Encoding runs on a worker pool off the render thread. Every save owns a private copy of the pixels, so the
// render thread may overwrite its output as soon as Save returns.
package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/dispatcher"
)

// ErrInvalidImage is returned when the pixel buffer does not match the given size.
var ErrInvalidImage = errors.New("snapshot: pixel buffer does not match image size")

// Saver encodes images to files off the calling goroutine.
type Saver interface {
	// Save copies pixels and schedules encoding them to a file. The file name gets the format's extension
	// appended unless it already has one for that format; relative names resolve against the saver's directory.
	//
	// Parameters:
	//   - pixels: tightly packed RGBA rows, top row first
	//   - width, height: the image size in pixels
	//   - filename: the destination file
	//   - format: the encoding
	//
	// Returns:
	//   - error: ErrInvalidImage or ErrUnsupportedFormat; encoding and write errors are reported to the
	//     completion callback and the log instead
	Save(pixels []byte, width, height int, filename string, format Format) error

	// Wait blocks until every scheduled save has finished.
	Wait()
}

type saver struct {
	pool        worker.DynamicWorkerPool
	workers     int
	directory   string
	jpegQuality int
	onSaved     func(path string, err error)

	pending sync.WaitGroup
	nextID  atomic.Int64
}

var _ Saver = &saver{}

// NewSaver creates a Saver backed by a worker pool.
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - Saver: the new saver
func NewSaver(options ...SaverBuilderOption) Saver {
	s := &saver{
		workers:     2,
		jpegQuality: DefaultJPEGQuality,
	}
	for _, opt := range options {
		opt(s)
	}
	s.pool = worker.NewDynamicWorkerPool(s.workers, 64, 5*time.Second)
	return s
}

func (s *saver) Save(pixels []byte, width, height int, filename string, format Format) error {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return fmt.Errorf("%d bytes for %dx%d: %w", len(pixels), width, height, ErrInvalidImage)
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}

	path := withExtension(filename, format)
	if s.directory != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.directory, path)
	}
	img := (&common.ImageData{Pixels: pixels, Width: width, Height: height}).Clone()

	s.pending.Add(1)
	s.pool.SubmitTask(worker.Task{
		ID: int(s.nextID.Add(1)),
		Do: func() (any, error) {
			defer s.pending.Done()
			err := s.write(path, img, format)
			s.report(path, err)
			return nil, err
		},
	})
	return nil
}

func (s *saver) write(path string, img *common.ImageData, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(file)
	if err := Encode(bw, img.ToRGBA(), format, s.jpegQuality); err != nil {
		file.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (s *saver) report(path string, err error) {
	if err != nil {
		common.Logger().Error("snapshot failed", slog.String("path", path), slog.Any("error", err))
	} else {
		common.Logger().Info("snapshot written", slog.String("path", path))
	}
	if s.onSaved != nil {
		s.onSaved(path, err)
	}
}

func (s *saver) Wait() {
	s.pending.Wait()
}

// Frames is the part of the dispatcher a snapshot request needs.
type Frames interface {
	Enqueue(name string, action dispatcher.Action)
	SkipNextRender()
}

// Source reads back the current output.
type Source interface {
	ReadOutput(ctx context.Context) (*common.ImageData, error)
}

// SaveImageAsync requests a snapshot of the current output. The readback happens at the start of the next frame,
// before that frame renders, and the frame then skips rendering so the saved image is the one on screen.
//
// Parameters:
//   - frames: the dispatcher the request is deferred through
//   - source: the output to read back
//   - s: the saver encoding the image
//   - filename: the destination file
//   - format: the encoding
func SaveImageAsync(frames Frames, source Source, s Saver, filename string, format Format) {
	frames.Enqueue("save image", func() error {
		img, err := source.ReadOutput(context.Background())
		if err != nil {
			return fmt.Errorf("read back %s: %w", filename, err)
		}
		if err := s.Save(img.Pixels, img.Width, img.Height, filename, format); err != nil {
			return err
		}
		frames.SkipNextRender()
		return nil
	})
}

// TimestampName returns a snapshot file name for the given time, without extension.
func TimestampName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}
