package handlers

import (
	"context"
	"encoding/json"
	"time"

	"ganttboard/internal/logging"
	"ganttboard/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketHandler streams live task updates for one project. On
// connect the client receives a full snapshot, then incremental events
// that it merges with ApplyTaskEvent semantics client-side.
type WebSocketHandler struct {
	feed     *services.ProjectFeed
	tasks    *services.TaskService
	projects *services.ProjectService
	metrics  *services.Metrics
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(feed *services.ProjectFeed, tasks *services.TaskService, projects *services.ProjectService, metrics *services.Metrics) *WebSocketHandler {
	return &WebSocketHandler{feed: feed, tasks: tasks, projects: projects, metrics: metrics}
}

// Upgrade checks the project exists in the caller's org before letting
// the connection upgrade. Runs as a plain HTTP middleware.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	orgID, _ := c.Locals("org_id").(string)
	projectID := c.Params("id")

	ok, err := h.projects.BelongsToOrg(c.Context(), projectID, orgID)
	if err != nil || !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	c.Locals("project_id", projectID)
	return c.Next()
}

// snapshotMessage is the first frame sent on every connection
type snapshotMessage struct {
	Type  string      `json:"type"`
	Tasks interface{} `json:"tasks"`
}

// eventMessage wraps an incremental task event frame
type eventMessage struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

// Handle runs one WebSocket connection
// GET /ws/projects/:id
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	orgID, _ := c.Locals("org_id").(string)
	projectID, _ := c.Locals("project_id").(string)

	logger := logging.WithProject(logging.WithRequest(userID, orgID), projectID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Send the snapshot before subscribing would race with events, so
	// subscribe first: a duplicate event merges cleanly, a missed one
	// doesn't.
	sub := h.feed.Subscribe(projectID, userID)
	defer h.feed.Unsubscribe(sub)

	// The first subscriber loads from the database and primes the feed;
	// later ones get the event-folded snapshot the feed maintains.
	snapshot, ok := h.feed.Snapshot(projectID)
	if !ok {
		var err error
		snapshot, err = h.tasks.List(ctx, projectID)
		if err != nil {
			logger.Error("failed to load task snapshot", "error", err)
			c.Close()
			return
		}
		h.feed.Prime(projectID, snapshot)
	}
	logger.Debug("feed subscriber connected", "tasks", len(snapshot))

	if err := c.WriteJSON(snapshotMessage{Type: "snapshot", Tasks: snapshot}); err != nil {
		return
	}

	// Writer: drain the feed, pacing outbound frames per connection
	go func() {
		defer cancel()
		for data := range sub.Send {
			if err := sub.Limiter.Wait(ctx); err != nil {
				return
			}
			if err := c.WriteJSON(eventMessage{Type: "event", Event: data}); err != nil {
				return
			}
		}
	}()

	// Reader: the feed is server-to-client; anything but ping/pong and
	// close frames is ignored. Read errors end the connection.
	c.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	pinger := time.NewTicker(30 * time.Second)
	defer pinger.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pinger.C:
				if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		c.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
