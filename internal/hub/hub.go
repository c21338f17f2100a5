package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/metrics"
)

// DefaultBuffer is the queue length used when New is given a non-positive size.
const DefaultBuffer = 256

// Hub fans progress events out to per-model subscribers and remembers the
// latest event of every model. It implements downloader.Reporter.
//
// Reporting never blocks a download on a slow consumer for intermediate
// events: those are dropped when a queue is full. Terminal events are always
// delivered.
type Hub struct {
	log    *slog.Logger
	events chan data.ProgressEvent

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
	last map[string]data.ProgressEvent

	stop    chan struct{}
	stopped chan struct{}
	wg      sync.WaitGroup
}

// New creates a Hub. Run must be called before events are reported.
func New(log *slog.Logger, buffer int) *Hub {
	if log == nil {
		log = slog.Default()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		log:     log,
		events:  make(chan data.ProgressEvent, buffer),
		subs:    make(map[string]map[*Subscription]struct{}),
		last:    make(map[string]data.ProgressEvent),
		stopped: make(chan struct{}),
	}
}

// Run starts the dispatch loop.
func (h *Hub) Run() {
	h.stop = make(chan struct{})
	h.log = h.log.With("hub_id", uuid.NewString())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-h.stop:
				h.drain()
				return
			case e := <-h.events:
				h.handle(e)
			}
		}
	}()
}

// Stop terminates the dispatch loop, delivers what is still queued and closes
// every subscription.
func (h *Hub) Stop() {
	if h.stop == nil {
		return
	}
	select {
	case <-h.stopped:
		return
	default:
	}
	close(h.stopped)
	close(h.stop)
	h.wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		for s := range set {
			s.close()
		}
		delete(h.subs, id)
	}
}

// Report queues e for dispatch.
func (h *Hub) Report(e data.ProgressEvent) {
	if !e.Status.Terminal() {
		select {
		case h.events <- e:
		default:
			metrics.EventsDropped.Inc()
			h.log.Debug("progress event dropped", "model_id", e.ModelID, "downloaded_bytes", e.DownloadedBytes)
		}
		return
	}
	select {
	case h.events <- e:
	case <-h.stopped:
		h.log.Warn("terminal event after stop", "model_id", e.ModelID, "status", e.Status)
	}
}

func (h *Hub) drain() {
	for {
		select {
		case e := <-h.events:
			h.handle(e)
		default:
			return
		}
	}
}

func (h *Hub) handle(e data.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[e.ModelID] = e
	for s := range h.subs[e.ModelID] {
		s.deliver(e)
		if e.Status.Terminal() {
			s.close()
			delete(h.subs[e.ModelID], s)
		}
	}
	if len(h.subs[e.ModelID]) == 0 {
		delete(h.subs, e.ModelID)
	}
	if e.Status.Terminal() {
		h.log.Info("download finished", "model_id", e.ModelID, "status", e.Status, "downloaded_bytes", e.DownloadedBytes, "total_bytes", e.TotalBytes)
	} else {
		h.log.Debug("progress event", "model_id", e.ModelID, "downloaded_bytes", e.DownloadedBytes, "total_bytes", e.TotalBytes, "speed_mbps", e.SpeedMBps)
	}
}

// Subscribe streams the events of modelID until its next terminal event. If a
// download is in progress its latest event is delivered first.
func (h *Hub) Subscribe(modelID string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	s := &Subscription{hub: h, modelID: modelID, ch: make(chan data.ProgressEvent, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.stopped:
		s.close()
		return s
	default:
	}
	if e, ok := h.last[modelID]; ok && !e.Status.Terminal() {
		s.deliver(e)
	}
	if h.subs[modelID] == nil {
		h.subs[modelID] = make(map[*Subscription]struct{})
	}
	h.subs[modelID][s] = struct{}{}
	return s
}

// Subscription is one consumer of a model's event stream. Its channel is
// closed after the terminal event, on Close, or when the hub stops.
type Subscription struct {
	hub     *Hub
	modelID string
	ch      chan data.ProgressEvent
	closed  bool
}

// C returns the event channel.
func (s *Subscription) C() <-chan data.ProgressEvent { return s.ch }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.subs[s.modelID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.modelID)
		}
	}
	s.close()
}

// deliver and close run with the hub lock held.
func (s *Subscription) deliver(e data.ProgressEvent) {
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
		return
	default:
	}
	if !e.Status.Terminal() {
		metrics.EventsDropped.Inc()
		return
	}
	// make room for the terminal event
	select {
	case <-s.ch:
	default:
	}
	s.ch <- e
}

func (s *Subscription) close() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
