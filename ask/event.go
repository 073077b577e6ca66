// Package ask turns a model token stream into a typed event stream.
// It resolves asset markers emitted by the model, assembles prompts, and
// owns termination of each streaming request.
package ask

// EventType identifies a stream event.
type EventType string

const (
	EventText  EventType = "text"
	EventImage EventType = "image"
	EventFile  EventType = "file"
	EventError EventType = "error"
)

// Event is one newline-delimited JSON record in an ask response stream.
// Text and error events carry Content; asset events carry URL and MIME.
type Event struct {
	Type     EventType `json:"type"`
	Content  string    `json:"content,omitempty"`
	AssetID  string    `json:"asset_id,omitempty"`
	URL      string    `json:"url,omitempty"`
	MIME     string    `json:"mime,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Size     int64     `json:"size,omitempty"`
}

// Sink receives events in emission order. A Sink error means the client is
// gone; the caller stops emitting.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

func (f SinkFunc) Emit(e Event) error { return f(e) }
