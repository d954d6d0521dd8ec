package dataimporter

import (
	"encoding/json"
	"fmt"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

const RefreshQueueName = "refresh-requests"

type RefreshKind string

const (
	RefreshStatic   RefreshKind = "static"
	RefreshRealtime RefreshKind = "realtime"
)

func (k RefreshKind) Valid() bool {
	return k == RefreshStatic || k == RefreshRealtime
}

type RefreshRequest struct {
	Kind RefreshKind `json:"kind"`
}

func PublishRefreshRequest(queue rmq.Queue, kind RefreshKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown refresh kind %q", kind)
	}

	payload, err := json.Marshal(RefreshRequest{Kind: kind})
	if err != nil {
		return err
	}

	return queue.PublishBytes(payload)
}

type refreshTrigger interface {
	Trigger(kind RefreshKind) bool
}

// RefreshConsumer hands queued refresh requests to the scheduler
type RefreshConsumer struct {
	scheduler refreshTrigger
}

func NewRefreshConsumer(scheduler refreshTrigger) *RefreshConsumer {
	return &RefreshConsumer{scheduler: scheduler}
}

func (c *RefreshConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var request RefreshRequest
		if err := json.Unmarshal([]byte(delivery.Payload()), &request); err != nil || !request.Kind.Valid() {
			log.Error().Err(err).Str("payload", delivery.Payload()).Msg("Rejecting malformed refresh request")
			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject refresh request")
			}
			continue
		}

		if !c.scheduler.Trigger(request.Kind) {
			log.Warn().Str("kind", string(request.Kind)).Msg("Refresh already pending, dropping request")
		}

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack refresh request")
		}
	}
}
