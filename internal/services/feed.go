package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ganttboard/internal/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// FeedSubscriber is one live WebSocket client watching a project.
// Events arrive on Send; the connection handler drains it, pacing
// writes with Limiter so one noisy project cannot saturate a client.
type FeedSubscriber struct {
	ConnID    string
	ProjectID string
	UserID    string
	Send      chan []byte
	Limiter   *rate.Limiter
}

// ProjectFeed fans task events out to the WebSocket subscribers of each
// project, and relays them across instances through Redis pub/sub when
// configured. While a project has subscribers the feed also keeps a
// task snapshot current by folding each event in, so late subscribers
// get their opening frame without a database round trip.
type ProjectFeed struct {
	subscribers map[string]map[string]*FeedSubscriber // projectID -> connID -> sub
	snapshots   map[string][]models.Task              // projectID -> current task list
	mutex       sync.RWMutex
	pubsub      *PubSubService // nil in single-instance deployments
	metrics     *Metrics
}

// Outbound pacing per connection: 20 events/sec with a burst of 40.
// A Gantt drag emits a patch per mouse move; this keeps slow clients
// from building unbounded write backlogs.
const (
	feedEventRate  = 20
	feedEventBurst = 40
	feedSendBuffer = 64
)

// NewProjectFeed creates a new project feed. pubsub may be nil.
func NewProjectFeed(pubsub *PubSubService) *ProjectFeed {
	feed := &ProjectFeed{
		subscribers: make(map[string]map[string]*FeedSubscriber),
		snapshots:   make(map[string][]models.Task),
		pubsub:      pubsub,
	}

	if pubsub != nil {
		pubsub.OnTaskEvent(feed.applyRemote)
	}

	return feed
}

// SetMetrics wires the metrics registry after construction
func (f *ProjectFeed) SetMetrics(m *Metrics) {
	f.metrics = m
}

// Subscribe registers a new live client for a project
func (f *ProjectFeed) Subscribe(projectID, userID string) *FeedSubscriber {
	sub := &FeedSubscriber{
		ConnID:    uuid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		Send:      make(chan []byte, feedSendBuffer),
		Limiter:   rate.NewLimiter(rate.Limit(feedEventRate), feedEventBurst),
	}

	f.mutex.Lock()
	if f.subscribers[projectID] == nil {
		f.subscribers[projectID] = make(map[string]*FeedSubscriber)
	}
	f.subscribers[projectID][sub.ConnID] = sub
	total := f.countLocked()
	f.mutex.Unlock()

	if f.metrics != nil {
		f.metrics.RecordFeedConnect()
	}
	log.Printf("✅ Feed subscriber added: project %s (total: %d)", projectID, total)
	return sub
}

// Unsubscribe removes a live client and closes its send channel
func (f *ProjectFeed) Unsubscribe(sub *FeedSubscriber) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.dropLocked(sub)
}

func (f *ProjectFeed) dropLocked(sub *FeedSubscriber) {
	conns, ok := f.subscribers[sub.ProjectID]
	if !ok {
		return
	}
	if _, exists := conns[sub.ConnID]; !exists {
		return
	}
	delete(conns, sub.ConnID)
	if len(conns) == 0 {
		delete(f.subscribers, sub.ProjectID)
		delete(f.snapshots, sub.ProjectID)
	}
	close(sub.Send)
	if f.metrics != nil {
		f.metrics.RecordFeedDisconnect()
	}
}

// Publish delivers a local task event to this instance's subscribers
// and relays it to the other instances
func (f *ProjectFeed) Publish(ev models.TaskEvent) {
	f.broadcast(ev)

	if f.pubsub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := f.pubsub.PublishTaskEvent(ctx, ev); err != nil {
			log.Printf("⚠️  Failed to relay task event: %v", err)
		}
	}
	if f.metrics != nil {
		f.metrics.RecordTaskEvent(ev.Op)
	}
}

// applyRemote delivers an event that originated on another instance.
// No relay back: the source already published it.
func (f *ProjectFeed) applyRemote(ev models.TaskEvent) {
	f.broadcast(ev)
}

// Prime seeds the snapshot for a project that already has subscribers.
// The first prime wins: a snapshot that has been folding events since
// must not be reset to an older list.
func (f *ProjectFeed) Prime(projectID string, tasks []models.Task) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.subscribers[projectID] == nil {
		return
	}
	if _, ok := f.snapshots[projectID]; ok {
		return
	}
	f.snapshots[projectID] = append([]models.Task(nil), tasks...)
}

// Snapshot returns a copy of the current task list for a project, or
// false when no subscriber has primed it yet.
func (f *ProjectFeed) Snapshot(projectID string) ([]models.Task, bool) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	tasks, ok := f.snapshots[projectID]
	if !ok {
		return nil, false
	}
	return append([]models.Task(nil), tasks...), true
}

func (f *ProjectFeed) broadcast(ev models.TaskEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("⚠️  Failed to marshal task event: %v", err)
		return
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if tasks, ok := f.snapshots[ev.ProjectID]; ok {
		f.snapshots[ev.ProjectID] = models.ApplyTaskEvent(tasks, ev)
	}

	for _, sub := range f.subscribers[ev.ProjectID] {
		select {
		case sub.Send <- data:
		default:
			// Subscriber can't keep up. Drop it; the client
			// reconnects and loads a fresh snapshot.
			log.Printf("⚠️  Dropping slow feed subscriber %s (project %s)", sub.ConnID, sub.ProjectID)
			f.dropLocked(sub)
		}
	}
}

// Count returns the number of live subscribers across all projects
func (f *ProjectFeed) Count() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.countLocked()
}

func (f *ProjectFeed) countLocked() int {
	total := 0
	for _, conns := range f.subscribers {
		total += len(conns)
	}
	return total
}
