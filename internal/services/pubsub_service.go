package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ganttboard/internal/models"

	"github.com/redis/go-redis/v9"
)

// PubSubService relays task events between instances through Redis so
// every connected client sees a change no matter which instance
// handled the write
type PubSubService struct {
	redis      *RedisService
	pubsub     *redis.PubSub
	instanceID string
	handler    func(models.TaskEvent)
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// taskEventEnvelope wraps a task event with the originating instance ID
// so an instance can ignore its own echoes
type taskEventEnvelope struct {
	InstanceID string           `json:"instance_id"`
	Event      models.TaskEvent `json:"event"`
}

// NewPubSubService creates a new pub/sub service
func NewPubSubService(redisService *RedisService, instanceID string) *PubSubService {
	ctx, cancel := context.WithCancel(context.Background())
	return &PubSubService{
		redis:      redisService,
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// OnTaskEvent registers the callback invoked for events published by
// OTHER instances. Local events never round-trip through here.
func (s *PubSubService) OnTaskEvent(handler func(models.TaskEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Start begins listening for task events from other instances
func (s *PubSubService) Start() error {
	client := s.redis.Client()

	s.pubsub = client.PSubscribe(s.ctx, "project:*:tasks")

	// Wait for subscription confirmation
	_, err := s.pubsub.Receive(s.ctx)
	if err != nil {
		return err
	}

	go s.processMessages()

	log.Printf("✅ [PUBSUB] Listening for task events (instance: %s)", s.instanceID)
	return nil
}

func (s *PubSubService) processMessages() {
	ch := s.pubsub.Channel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(msg)
		}
	}
}

func (s *PubSubService) handleMessage(msg *redis.Message) {
	var envelope taskEventEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
		log.Printf("⚠️  [PUBSUB] Failed to unmarshal task event: %v", err)
		return
	}

	// Skip messages from this instance (avoid loops)
	if envelope.InstanceID == s.instanceID {
		return
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()

	if handler != nil {
		handler(envelope.Event)
	}
}

// PublishTaskEvent publishes a task event to the project's channel
func (s *PubSubService) PublishTaskEvent(ctx context.Context, ev models.TaskEvent) error {
	data, err := json.Marshal(taskEventEnvelope{
		InstanceID: s.instanceID,
		Event:      ev,
	})
	if err != nil {
		return err
	}

	channel := "project:" + ev.ProjectID + ":tasks"
	return s.redis.Client().Publish(ctx, channel, data).Err()
}

// Stop stops the pub/sub service
func (s *PubSubService) Stop() error {
	s.cancel()
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}
