package siteask

// Metrics receives operational counters from the crawler and the streaming
// layer. The zero-value NopMetrics discards everything; the prometheus
// subpackage provides a real implementation.
type Metrics interface {
	PageFetched()
	PageFailed()
	AssetStored(kind AssetKind)
	StreamStarted()
	StreamClosed()
	EventEmitted(eventType string)
}

// NopMetrics is a Metrics implementation that discards all observations.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) PageFetched()          {}
func (NopMetrics) PageFailed()           {}
func (NopMetrics) AssetStored(AssetKind) {}
func (NopMetrics) StreamStarted()        {}
func (NopMetrics) StreamClosed()         {}
func (NopMetrics) EventEmitted(string)   {}
