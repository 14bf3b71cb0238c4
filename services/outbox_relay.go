package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
	"github.com/yeremiapane/table-session/utils"
)

// OutboxRelay delivers committed outbox events to the publishers. It polls on
// Interval and can be woken early right after a commit. Delivery is at least
// once: an event that failed on any publisher is retried on all of them until
// MaxAttempts is reached, so consumers dedupe on the event id.
type OutboxRelay struct {
	Interval       time.Duration
	BatchSize      int
	MaxAttempts    int
	PublishTimeout time.Duration

	store      *store.Store
	publishers []events.Publisher
	now        func() time.Time

	wake     chan struct{}
	stopChan chan struct{}
	done     chan struct{}
	mu       sync.Mutex
}

func NewOutboxRelay(st *store.Store, publishers ...events.Publisher) *OutboxRelay {
	return &OutboxRelay{
		Interval:       500 * time.Millisecond,
		BatchSize:      100,
		MaxAttempts:    10,
		PublishTimeout: 5 * time.Second,
		store:          st,
		publishers:     publishers,
		now:            func() time.Time { return time.Now().UTC() },
		wake:           make(chan struct{}, 1),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (r *OutboxRelay) Start() {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
			case <-r.wake:
			case <-r.stopChan:
				return
			}
			if _, err := r.Flush(context.Background()); err != nil {
				utils.ErrorLogger.WithFields(logrus.Fields{"error": err}).Error("outbox relay flush failed")
			}
		}
	}()
	utils.InfoLogger.Printf("Outbox relay started (%d publishers)", len(r.publishers))
}

// Stop ends the polling loop and waits for an in-flight flush.
func (r *OutboxRelay) Stop() {
	close(r.stopChan)
	<-r.done
}

// Wake asks the loop to flush now. It never blocks.
func (r *OutboxRelay) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Flush delivers one batch of pending events and returns how many were
// delivered to every publisher.
func (r *OutboxRelay) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.store.Reader(ctx).PendingEvents(r.BatchSize, r.MaxAttempts)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, e := range pending {
		if pubErr := r.publish(ctx, e); pubErr != nil {
			attempts := e.Attempts + 1
			utils.ErrorLogger.WithFields(logrus.Fields{
				"event_id":  e.EventID,
				"type":      e.Type,
				"tenant_id": e.TenantID,
				"attempts":  attempts,
				"error":     pubErr,
			}).Error("event delivery failed")

			err := r.store.Transaction(ctx, func(tx *store.Tx) error {
				return tx.MarkEventFailed(e.ID, attempts, pubErr.Error())
			})
			if err != nil {
				return delivered, err
			}
			continue
		}

		err := r.store.Transaction(ctx, func(tx *store.Tx) error {
			return tx.MarkEventProcessed(e.ID, r.now())
		})
		if err != nil {
			return delivered, err
		}
		delivered++
	}

	if delivered > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{"count": delivered}).Debug("events delivered")
	}
	return delivered, nil
}

func (r *OutboxRelay) publish(ctx context.Context, e models.OutboxEvent) error {
	for _, p := range r.publishers {
		pctx, cancel := context.WithTimeout(ctx, r.PublishTimeout)
		err := p.Publish(pctx, e)
		cancel()
		if err != nil {
			return &publishError{publisher: p.Name(), err: err}
		}
	}
	return nil
}

type publishError struct {
	publisher string
	err       error
}

func (e *publishError) Error() string {
	return e.publisher + ": " + e.err.Error()
}

func (e *publishError) Unwrap() error {
	return e.err
}
