package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andescargo/tracking-gateway/internal/events"
	"github.com/andescargo/tracking-gateway/pkg/logger"
	"github.com/andescargo/tracking-gateway/pkg/prom"
	"github.com/andescargo/tracking-gateway/pkg/worker"
)

// Notifier consumes package events from the stream and dispatches a
// notification per event across a worker pool. Dispatch here means a
// structured log line plus metrics; a real channel (mail, SMS, webhook)
// plugs in at process().
type Notifier struct {
	queue   *events.Queue
	workers *worker.WorkerManager
}

func New(queue *events.Queue, numWorkers int) *Notifier {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	wm := worker.NewWorkerManager(1024, numWorkers, nil)

	n := &Notifier{
		queue:   queue,
		workers: wm,
	}
	wm.SetWorker(n.process)
	return n
}

// Run blocks until the worker pool terminates.
func (n *Notifier) Run() error {
	err := n.queue.Consume(func(ctx context.Context, msg *events.Message) error {
		var ev events.PackageEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			// a payload that never parses never succeeds; ack and drop
			logger.Warn("[notifier] dropping unparseable event", "id", msg.ID, "error", err)
			return nil
		}
		n.workers.Enqueue(ev)
		return nil
	})
	if err != nil {
		return err
	}

	return n.workers.Start()
}

func (n *Notifier) process(workerIndex int, job interface{}) {
	ev, ok := job.(events.PackageEvent)
	if !ok {
		return
	}

	logger.Info("notification dispatched",
		"worker", workerIndex,
		"type", ev.Type,
		"tracking_number", ev.TrackingNumber,
		"status", ev.Status,
		"changed_by", ev.ChangedBy,
	)
	prom.IncNotificationDispatched(ev.Status)
}

func (n *Notifier) Stop(timeout time.Duration) {
	if err := n.queue.Stop(timeout); err != nil {
		logger.Warn("[notifier] queue stop", "error", err)
	}
	n.workers.Exit()
}
