// Package stream runs the per-frame pipeline: decode, detect, match,
// record attendance, annotate and broadcast.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/classtrack/rollcall/internal/ledger"
	"github.com/classtrack/rollcall/internal/matcher"
	"github.com/classtrack/rollcall/internal/vision"
)

// unknownLabel is drawn for faces the matcher cannot identify.
const unknownLabel = "Unknown"

// FaceDetector produces detections for an encoded image.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]vision.Detection, error)
}

// Recorder is the ledger's write path.
type Recorder interface {
	RecordIfAbsent(ctx context.Context, identityID int64, ts time.Time) (ledger.Outcome, error)
}

// NameResolver maps an identity to its display name.
type NameResolver interface {
	DisplayName(ctx context.Context, identityID int64) (string, error)
}

// Options wires a pipeline together.
type Options struct {
	Detector    FaceDetector
	Matcher     *matcher.Matcher
	Recorder    Recorder
	Names       NameResolver
	Broadcaster *Broadcaster
	MaxSize     int // longest frame side sent to the detector
	Workers     int
	QueueSize   int
	Now         func() time.Time // defaults to time.Now
}

// Pipeline processes inbound frames with a bounded worker pool. Frames
// arriving while the queue is full are dropped so the inbound channel
// never blocks; outbound frame order may therefore skew relative to
// arrival order. The per-day attendance invariant does not depend on
// ordering: it is enforced by the ledger store's atomic insert.
type Pipeline struct {
	detector    FaceDetector
	matcher     *matcher.Matcher
	recorder    Recorder
	names       NameResolver
	broadcaster *Broadcaster
	maxSize     int
	workers     int
	now         func() time.Time

	frames chan []byte
	wg     sync.WaitGroup
}

// NewPipeline creates a pipeline. Call Start before submitting frames.
func NewPipeline(opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 2
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		detector:    opts.Detector,
		matcher:     opts.Matcher,
		recorder:    opts.Recorder,
		names:       opts.Names,
		broadcaster: opts.Broadcaster,
		maxSize:     opts.MaxSize,
		workers:     opts.Workers,
		now:         opts.Now,
		frames:      make(chan []byte, opts.QueueSize),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled;
// Wait blocks until they have drained.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case frame := <-p.frames:
					if err := p.Process(ctx, frame); err != nil {
						log.Printf("frame dropped: %v", err)
					}
				}
			}
		}()
	}
}

// Wait blocks until all workers have stopped.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Submit queues a frame for processing. Returns false when the queue is
// full and the frame was dropped.
func (p *Pipeline) Submit(frame []byte) bool {
	select {
	case p.frames <- frame:
		return true
	default:
		return false
	}
}

// Process runs one frame through the pipeline and broadcasts the
// annotated result. Errors are per-frame: nothing is emitted for a
// failed frame and no shared state is affected.
func (p *Pipeline) Process(ctx context.Context, frame []byte) error {
	img, err := vision.Decode(frame)
	if err != nil {
		return err
	}

	// Detection runs on a downscaled copy; boxes are mapped back to the
	// original resolution before drawing.
	small, ratio := vision.Downscale(img, p.maxSize)
	detectData, err := vision.EncodeJPEG(small)
	if err != nil {
		return err
	}

	faces, err := p.detector.DetectFaces(ctx, detectData)
	if err != nil {
		return fmt.Errorf("detecting faces: %w", err)
	}

	annotations := make([]vision.Annotation, 0, len(faces))
	for _, face := range faces {
		label := p.resolveFace(ctx, face.Embedding)
		box := vision.BBoxToRect(vision.ScaleBBox(face.BBox, ratio), img.Bounds())
		annotations = append(annotations, vision.Annotation{Box: box, Label: label})
	}

	encoded, err := vision.EncodeJPEG(vision.Annotate(img, annotations))
	if err != nil {
		return err
	}

	p.broadcaster.Publish(encoded)
	return nil
}

// resolveFace matches one embedding and records attendance for
// identified faces. Ledger failures are logged, never fatal to the
// frame: the face still gets its label.
func (p *Pipeline) resolveFace(ctx context.Context, embedding []float32) string {
	res := p.matcher.Match(embedding)
	if !res.Identified {
		return unknownLabel
	}

	if _, err := p.recorder.RecordIfAbsent(ctx, res.IdentityID, p.now()); err != nil {
		if errors.Is(err, ledger.ErrPersistence) {
			log.Printf("attendance not recorded: %v", err)
		} else {
			log.Printf("recording attendance: %v", err)
		}
	}

	name, err := p.names.DisplayName(ctx, res.IdentityID)
	if err != nil || name == "" {
		log.Printf("resolving display name for identity %d: %v", res.IdentityID, err)
		return unknownLabel
	}
	return name
}
