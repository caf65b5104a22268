// Package viewsync keeps a single map layer showing the features of the most
// recently settled viewport.
//
// The sync is driven by a bubbletea program: OnViewportSettled returns the
// command that performs the fetch off the event loop, and the resulting
// LoadedMsg comes back through Update where Resolve applies it. Both calls
// happen on the program's event goroutine, so the epoch comparison in Resolve
// is the only ordering guard needed.
package viewsync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb/geojson"

	"geomap/internal/metrics"
)

// LayerID identifies the layer owned by the sync.
const LayerID = "current"

// Epoch identifies a request. Each settle allocates a value strictly greater
// than every earlier one.
type Epoch uint64

// Surface is the part of the hosting map the sync writes to.
type Surface interface {
	AddLayer(id string) error
	SetLayerData(id string, fc *geojson.FeatureCollection) error
}

// Fetcher loads the features inside a bounding box.
type Fetcher interface {
	Fetch(ctx context.Context, bbox BoundingBox) (*geojson.FeatureCollection, error)
}

// Reporter receives refresh failures. It must not block.
type Reporter interface {
	ReportFetchError(err *FetchError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err *FetchError)

func (f ReporterFunc) ReportFetchError(err *FetchError) { f(err) }

// LoadedMsg carries a finished fetch back to the event loop.
type LoadedMsg struct {
	Epoch   Epoch
	BBox    BoundingBox
	Data    *geojson.FeatureCollection
	Err     error
	Elapsed time.Duration
}

// Outcome describes what Resolve did with a LoadedMsg.
type Outcome int

const (
	// Ignored messages were not issued by this sync.
	Ignored Outcome = iota
	// Applied responses replaced the layer data.
	Applied
	// Stale responses belonged to a superseded settle and were dropped.
	Stale
	// Failed fetches left the layer untouched.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Stale:
		return "stale"
	case Failed:
		return "failed"
	default:
		return "ignored"
	}
}

// Option configures a Sync.
type Option func(*Sync)

// WithTimeout bounds every fetch. Zero leaves fetches unbounded.
func WithTimeout(d time.Duration) Option {
	return func(s *Sync) { s.timeout = d }
}

// WithReporter sets the collaborator that receives fetch failures.
func WithReporter(r Reporter) Option {
	return func(s *Sync) { s.reporter = r }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sync) { s.log = l }
}

// Sync is the viewport data sync. It is not safe for concurrent use; call it
// from the host's event goroutine only.
type Sync struct {
	surface  Surface
	fetcher  Fetcher
	reporter Reporter
	log      *slog.Logger
	timeout  time.Duration

	initialized bool
	epoch       Epoch
	applied     Epoch
	resolved    Epoch
	lastBBox    BoundingBox
}

// New creates a sync writing to surface and reading from fetcher.
func New(surface Surface, fetcher Fetcher, opts ...Option) *Sync {
	s := &Sync{
		surface: surface,
		fetcher: fetcher,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = logReporter{log: s.log}
	}
	return s
}

// Initialize registers the empty layer with the surface. It must be called
// exactly once before any settle is processed.
func (s *Sync) Initialize() error {
	if s.initialized {
		return &LayerInitError{Layer: LayerID, Err: errors.New("already initialized")}
	}
	if err := s.surface.AddLayer(LayerID); err != nil {
		return &LayerInitError{Layer: LayerID, Err: err}
	}
	s.initialized = true
	s.log.Info("layer initialized", "layer", LayerID)
	return nil
}

// OnViewportSettled starts a refresh for bbox and returns the command that
// performs it. The host runs the command; the sync never blocks here.
func (s *Sync) OnViewportSettled(bbox BoundingBox) tea.Cmd {
	if !s.initialized {
		s.log.Warn("viewport settled before layer initialization", "bbox", bbox.String())
		return nil
	}
	s.epoch++
	epoch := s.epoch
	s.lastBBox = bbox
	metrics.Settles.Inc()
	metrics.CurrentEpoch.Set(float64(epoch))
	s.log.Debug("viewport settled", "epoch", epoch, "bbox", bbox.String())

	fetcher, timeout := s.fetcher, s.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		fc, err := fetcher.Fetch(ctx, bbox)
		return LoadedMsg{Epoch: epoch, BBox: bbox, Data: fc, Err: err, Elapsed: time.Since(start)}
	}
}

// Resolve applies a finished fetch if it is still the current one. A returned
// error is always a *FetchError and has already been reported.
func (s *Sync) Resolve(msg LoadedMsg) (Outcome, error) {
	if !s.initialized || msg.Epoch == 0 || msg.Epoch > s.epoch {
		return Ignored, nil
	}
	current := msg.Epoch == s.epoch

	if msg.Err == nil && msg.Data == nil {
		msg.Err = &DecodeError{Err: errors.New("empty response")}
	}

	if msg.Err != nil {
		fe := &FetchError{Epoch: msg.Epoch, BBox: msg.BBox, Superseded: !current, Err: msg.Err}
		s.reporter.ReportFetchError(fe)
		if !current {
			metrics.Responses.WithLabelValues(Stale.String()).Inc()
			return Stale, nil
		}
		s.resolved = msg.Epoch
		metrics.Responses.WithLabelValues(Failed.String()).Inc()
		return Failed, fe
	}

	if !current {
		s.log.Debug("discarding superseded response", "epoch", msg.Epoch, "current", s.epoch)
		metrics.Responses.WithLabelValues(Stale.String()).Inc()
		return Stale, nil
	}

	if err := s.surface.SetLayerData(LayerID, msg.Data); err != nil {
		fe := &FetchError{Epoch: msg.Epoch, BBox: msg.BBox, Err: err}
		s.reporter.ReportFetchError(fe)
		s.resolved = msg.Epoch
		metrics.Responses.WithLabelValues(Failed.String()).Inc()
		return Failed, fe
	}
	s.applied, s.resolved = msg.Epoch, msg.Epoch
	metrics.Responses.WithLabelValues(Applied.String()).Inc()
	s.log.Info("layer updated",
		"epoch", msg.Epoch,
		"features", len(msg.Data.Features),
		"elapsed", msg.Elapsed,
	)
	return Applied, nil
}

// Epoch returns the most recently allocated epoch.
func (s *Sync) Epoch() Epoch { return s.epoch }

// AppliedEpoch returns the epoch whose data the layer currently shows.
func (s *Sync) AppliedEpoch() Epoch { return s.applied }

// Pending reports whether the current epoch has not been resolved yet.
func (s *Sync) Pending() bool { return s.epoch != s.resolved }

// LastBBox returns the bounding box of the latest settle.
func (s *Sync) LastBBox() BoundingBox { return s.lastBBox }

type logReporter struct {
	log *slog.Logger
}

func (r logReporter) ReportFetchError(err *FetchError) {
	if err.Superseded {
		r.log.Debug("superseded fetch failed", "epoch", err.Epoch, "error", err.Err)
		return
	}
	r.log.Error("fetch failed",
		"epoch", err.Epoch,
		"bbox", err.BBox.String(),
		"kind", ErrorKind(err.Err),
		"error", err.Err,
	)
}
