package downloader

import "github.com/tinoosan/modelkeep/internal/data"

// Reporter publishes progress events. Report is called from the transfer
// loop, so implementations that may block should buffer.
type Reporter interface {
	Report(data.ProgressEvent)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(data.ProgressEvent)

func (f ReporterFunc) Report(e data.ProgressEvent) { f(e) }

type discard struct{}

func (discard) Report(data.ProgressEvent) {}
