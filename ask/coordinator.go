package ask

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/siteask"
)

// State is the lifecycle phase of a streaming request.
type State int32

const (
	StateStreaming State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultIdleTimeout bounds how long a stream may go without any model
// output before it is forcibly closed.
const DefaultIdleTimeout = 120 * time.Second

var markerRe = regexp.MustCompile(`\[\[(IMAGE|FILE):([^\[\]]*?)\]\]`)

// Coordinator drives one streaming request: it consumes model output,
// scans it for asset markers, and emits typed events to a Sink. Every run
// terminates in StateClosed, whatever the model or the client does.
// A Coordinator serves a single request and is not reused.
type Coordinator struct {
	store       siteask.AssetStore
	knownIDs    []string
	idleTimeout time.Duration
	assetURL    func(id string) string
	logger      *slog.Logger
	metrics     siteask.Metrics

	state    atomic.Int32
	consumed map[string]bool
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.idleTimeout = d }
}

// WithAssetURL overrides how asset ids are turned into retrievable URLs.
func WithAssetURL(f func(id string) string) CoordinatorOption {
	return func(c *Coordinator) { c.assetURL = f }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics sets the metrics receiver.
func WithMetrics(m siteask.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a Coordinator for one request. knownIDs is the
// asset inventory markers resolve against, in store order.
func NewCoordinator(store siteask.AssetStore, knownIDs []string, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:       store,
		knownIDs:    knownIDs,
		idleTimeout: DefaultIdleTimeout,
		assetURL:    AssetURL,
		logger:      slog.Default(),
		metrics:     siteask.NopMetrics{},
		consumed:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AssetURL is the default mapping from asset id to serving path.
func AssetURL(id string) string {
	return "/assets/" + url.PathEscape(id)
}

// State reports the coordinator's current lifecycle phase.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// errSinkClosed marks a Sink write failure, which means the client
// disconnected mid-stream.
var errSinkClosed = errors.New("event sink closed")

// Run consumes the token stream until completion, client disconnect,
// context cancellation, or idle timeout, emitting events to sink along the
// way. It closes the stream before returning and always leaves the
// coordinator in StateClosed. The returned error reports an upstream model
// failure; termination by disconnect or timeout is not an error.
func (c *Coordinator) Run(ctx context.Context, stream siteask.TokenStream, sink Sink) error {
	c.metrics.StreamStarted()
	defer func() {
		c.state.Store(int32(StateClosed))
		c.metrics.StreamClosed()
	}()
	defer stream.Close()

	tokens := make(chan string)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			tok, err := stream.Next()
			if err != nil {
				errc <- err
				return
			}
			select {
			case tokens <- tok:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	timer := time.NewTimer(c.idleTimeout)
	defer timer.Stop()

	var pending string
	for {
		select {
		case <-ctx.Done():
			// Client is gone; nothing left to emit to.
			c.state.Store(int32(StateClosing))
			return nil

		case <-timer.C:
			c.state.Store(int32(StateClosing))
			c.logger.Warn("stream idle timeout", "timeout", c.idleTimeout)
			if err := c.flush(ctx, pending, sink); err == nil {
				c.emit(sink, Event{Type: EventError, Content: "generation stalled"})
			}
			return nil

		case tok := <-tokens:
			timer.Reset(c.idleTimeout)
			rest, err := c.drain(ctx, pending+tok, sink)
			if err != nil {
				c.state.Store(int32(StateClosing))
				return nil
			}
			pending = rest

		case err := <-errc:
			c.state.Store(int32(StateClosing))
			if flushErr := c.flush(ctx, pending, sink); flushErr != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("model stream failed", "error", err)
			c.emit(sink, Event{Type: EventError, Content: siteask.ErrorMessage(err)})
			return err
		}
	}
}

// drain emits all complete content in buf: text up to each marker, then the
// marker's asset event. Text that could be the start of an unfinished
// marker is held back and returned for the next round.
func (c *Coordinator) drain(ctx context.Context, buf string, sink Sink) (string, error) {
	for {
		loc := markerRe.FindStringSubmatchIndex(buf)
		if loc == nil {
			break
		}
		if err := c.emitText(sink, buf[:loc[0]]); err != nil {
			return "", err
		}
		ref := buf[loc[4]:loc[5]]
		if err := c.emitAsset(ctx, sink, ref); err != nil {
			return "", err
		}
		buf = buf[loc[1]:]
	}

	emit, hold := splitHoldback(buf)
	if err := c.emitText(sink, emit); err != nil {
		return "", err
	}
	return hold, nil
}

// flush drains the remaining buffer at stream end. Complete markers still
// resolve; anything else, including a trailing partial marker, goes out as
// plain text.
func (c *Coordinator) flush(ctx context.Context, buf string, sink Sink) error {
	rest, err := c.drain(ctx, buf, sink)
	if err != nil {
		return err
	}
	return c.emitText(sink, rest)
}

func (c *Coordinator) emitText(sink Sink, text string) error {
	if text == "" {
		return nil
	}
	return c.emit(sink, Event{Type: EventText, Content: text})
}

// emitAsset resolves a marker reference and emits the matching asset event
// once per stream. Unresolved markers are dropped with a diagnostic.
func (c *Coordinator) emitAsset(ctx context.Context, sink Sink, ref string) error {
	id, ok := Resolve(ref, c.knownIDs)
	if !ok {
		c.logger.Debug("unresolved asset marker", "marker", ref)
		return nil
	}
	if c.consumed[id] {
		return nil
	}

	asset, err := c.store.FindAssetByID(ctx, id)
	if err != nil {
		c.logger.Warn("resolved marker has no asset", "id", id, "error", err)
		return nil
	}

	event := Event{
		AssetID: asset.ID,
		URL:     c.assetURL(asset.ID),
		MIME:    asset.MIMEType,
		Size:    asset.ByteSize,
	}
	switch asset.Kind {
	case siteask.KindImage:
		event.Type = EventImage
	case siteask.KindFile:
		event.Type = EventFile
		event.Filename = asset.Filename
	default:
		event.Type = EventFile
	}

	c.consumed[id] = true
	return c.emit(sink, event)
}

func (c *Coordinator) emit(sink Sink, e Event) error {
	if err := sink.Emit(e); err != nil {
		c.logger.Debug("client disconnected", "error", err)
		return errSinkClosed
	}
	c.metrics.EventEmitted(string(e.Type))
	return nil
}

// splitHoldback separates text that is safe to emit now from a tail that
// could still grow into a marker.
func splitHoldback(s string) (emit, hold string) {
	i := strings.LastIndex(s, "[[")
	if i >= 0 && !strings.Contains(s[i:], "]]") {
		return s[:i], s[i:]
	}
	if strings.HasSuffix(s, "[") {
		return s[:len(s)-1], "["
	}
	return s, ""
}
