package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andescargo/tracking-gateway/pkg/logger"
	"github.com/andescargo/tracking-gateway/pkg/redis"
)

// Message is one consumed stream entry.
type Message struct {
	ID        string
	Data      []byte
	Timestamp time.Time
	Attempts  int
}

// MessageHandler processes one message. A nil return acks the message;
// an error leaves it pending so the reclaim pass retries it.
type MessageHandler func(ctx context.Context, msg *Message) error

type QueueConfig struct {
	Stream            string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// Queue is a small at-least-once delivery queue on a redis stream with a
// consumer group. Producers only need Publish*; consumers call Consume.
type Queue struct {
	adapter redis.RedisAdapter
	config  QueueConfig
	handler MessageHandler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewQueue(adapter redis.RedisAdapter, config QueueConfig) (*Queue, error) {
	if config.Stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = "default-consumer"
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout <= 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := q.initConsumerGroup(); err != nil {
		cancel()
		return nil, err
	}
	return q, nil
}

func (q *Queue) initConsumerGroup() error {
	err := q.adapter.XGroupCreateMkStream(q.config.Stream, q.config.ConsumerGroup, "0")
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (q *Queue) Publish(ctx context.Context, data []byte) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}

	id, err := q.adapter.XAdd(q.config.Stream, values)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}

	if q.config.MaxLen > 0 {
		if err := q.adapter.XTrimApprox(q.config.Stream, q.config.MaxLen); err != nil {
			logger.Warn("[events] failed to trim stream", "stream", q.config.Stream, "error", err)
		}
	}
	return id, nil
}

// PublishJSON publishes a JSON-encoded message
func (q *Queue) PublishJSON(ctx context.Context, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return q.Publish(ctx, data)
}

// Consume starts delivering messages to handler until Stop is called.
func (q *Queue) Consume(handler MessageHandler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	q.handler = handler

	q.wg.Add(1)
	go q.consumeLoop()
	return nil
}

func (q *Queue) consumeLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	reclaim := time.NewTicker(q.config.VisibilityTimeout)
	defer reclaim.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processMessages()
		case <-reclaim.C:
			q.claimStuckMessages()
		}
	}
}

func (q *Queue) processMessages() {
	msgs, err := q.adapter.XReadGroup(q.config.ConsumerGroup, q.config.ConsumerName, q.config.Stream, ">", q.config.BatchSize)
	if err != nil {
		if err == redis.NilError {
			return
		}
		logger.Error("[events] read group failed", "stream", q.config.Stream, "error", err)
		return
	}

	for i := range msgs {
		q.handleMessage(q.streamMessageToMessage(msgs[i]), 1)
	}
}

// claimStuckMessages re-delivers entries another consumer read but never
// acked. Entries past MaxRetries go to the dead letter stream when DLQ is
// enabled, otherwise they are dropped.
func (q *Queue) claimStuckMessages() {
	pending, err := q.adapter.XPendingExt(q.config.Stream, q.config.ConsumerGroup, "-", "+", q.config.BatchSize)
	if err != nil {
		if err != redis.NilError {
			logger.Error("[events] pending scan failed", "stream", q.config.Stream, "error", err)
		}
		return
	}

	for _, p := range pending {
		if p.Idle < q.config.VisibilityTimeout {
			continue
		}

		claimed, err := q.adapter.XClaim(q.config.Stream, q.config.ConsumerGroup, q.config.ConsumerName, q.config.VisibilityTimeout, p.ID)
		if err != nil || len(claimed) == 0 {
			continue
		}

		msg := q.streamMessageToMessage(claimed[0])
		attempts := int(p.RetryCount)

		if attempts > q.config.MaxRetries {
			q.moveToDeadLetterQueue(msg)
			continue
		}
		q.handleMessage(msg, attempts)
	}
}

func (q *Queue) handleMessage(msg *Message, attempts int) {
	msg.Attempts = attempts

	if err := q.handler(q.ctx, msg); err != nil {
		// not acked: the message stays pending and gets reclaimed later
		logger.Warn("[events] handler failed", "id", msg.ID, "attempts", attempts, "error", err)
		return
	}

	if err := q.adapter.XAck(q.config.Stream, q.config.ConsumerGroup, msg.ID); err != nil {
		logger.Error("[events] ack failed", "id", msg.ID, "error", err)
	}
}

func (q *Queue) moveToDeadLetterQueue(msg *Message) {
	if q.config.EnableDLQ {
		_, err := q.adapter.XAdd(q.config.Stream+":dlq", map[string]interface{}{
			"data":      string(msg.Data),
			"failed_at": strconv.FormatInt(time.Now().UnixMilli(), 10),
			"attempts":  strconv.Itoa(msg.Attempts),
		})
		if err != nil {
			logger.Error("[events] dlq publish failed", "id", msg.ID, "error", err)
			return
		}
	}

	if err := q.adapter.XAck(q.config.Stream, q.config.ConsumerGroup, msg.ID); err != nil {
		logger.Error("[events] dlq ack failed", "id", msg.ID, "error", err)
	}
	if err := q.adapter.XDel(q.config.Stream, msg.ID); err != nil {
		logger.Error("[events] dlq del failed", "id", msg.ID, "error", err)
	}
}

func (q *Queue) streamMessageToMessage(sm redis.StreamMessage) *Message {
	msg := &Message{ID: sm.ID}

	if raw, ok := sm.Values["data"].(string); ok {
		msg.Data = []byte(raw)
	}
	if ts, ok := sm.Values["timestamp"].(string); ok {
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			msg.Timestamp = time.UnixMilli(ms)
		}
	}
	return msg
}

func (q *Queue) Len() (int64, error) {
	return q.adapter.XLen(q.config.Stream)
}

// Stop shuts the consumer loop down, waiting up to timeout.
func (q *Queue) Stop(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("stop timed out after %s", timeout)
	}
}
