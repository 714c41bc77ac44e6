package harvester

import "sync"

// defaultQueueDepth bounds how many Reports a single slow Reporter may
// fall behind by before its oldest pending Report is dropped.
const defaultQueueDepth = 64

// DemultiplexingReporter fans a single stream of Reports out to a set of
// registered Reporters.  Each Reporter gets its own goroutine and its
// own bounded circularQueue, so a Reporter that blocks - uploading over
// a slow network link, say - only ever loses its own backlog; it never
// slows down delivery to the other Reporters or to the Harvester
// feeding this one.
type DemultiplexingReporter struct {
	mutex   sync.Mutex
	workers []*reporterWorker
	closed  bool
}

type reporterWorker struct {
	reporter Reporter
	queue    *circularQueue
	wake     chan struct{}
	done     chan struct{}
}

// NewDemultiplexingReporter creates a DemultiplexingReporter fanning out
// to reporters, each buffered up to defaultQueueDepth pending Reports.
func NewDemultiplexingReporter(reporters ...Reporter) *DemultiplexingReporter {
	d := &DemultiplexingReporter{}
	for _, r := range reporters {
		d.Add(r)
	}
	return d
}

// Add registers an additional Reporter to receive future Reports.
func (d *DemultiplexingReporter) Add(r Reporter) {
	w := &reporterWorker{
		reporter: r,
		queue:    newCircularQueue(defaultQueueDepth),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go w.run()

	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.workers = append(d.workers, w)
}

// Report implements Reporter, enqueueing report for every registered
// Reporter without blocking on any of them.
func (d *DemultiplexingReporter) Report(report Report) {
	d.mutex.Lock()
	workers := append([]*reporterWorker(nil), d.workers...)
	d.mutex.Unlock()

	for _, w := range workers {
		w.queue.add(report)
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

// Close stops every worker goroutine once it has drained whatever is
// currently queued.  Close does not wait for in-flight Reporter.Report
// calls beyond the current queue contents.
func (d *DemultiplexingReporter) Close() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, w := range d.workers {
		close(w.done)
	}
}

func (w *reporterWorker) run() {
	for {
		for _, report := range w.queue.drain() {
			w.reporter.Report(report)
		}
		select {
		case <-w.wake:
		case <-w.done:
			for _, report := range w.queue.drain() {
				w.reporter.Report(report)
			}
			return
		}
	}
}
