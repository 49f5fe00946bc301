package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"FableStudio/logger"

	"github.com/gorilla/websocket"
)

// wsEventType identifies the payload of a timeline websocket frame.
type wsEventType string

const (
	wsEventTimeline wsEventType = "timeline" // full editor state after an edit
	wsEventPosition wsEventType = "position" // playhead position during playback
	wsEventPong     wsEventType = "pong"
)

// wsEvent is the frame sent to timeline subscribers.
type wsEvent struct {
	Type      wsEventType `json:"type"`
	ProjectID int64       `json:"projectId"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// timelineClient is one websocket subscriber of a project's timeline.
type timelineClient struct {
	hub       *TimelineHub
	conn      *websocket.Conn
	send      chan []byte
	projectID int64
}

// TimelineHub fans timeline updates and playhead positions out to the
// websocket subscribers of each open project.
type TimelineHub struct {
	mu       sync.RWMutex
	projects map[int64]map[*timelineClient]bool
}

// NewTimelineHub creates an empty hub.
func NewTimelineHub() *TimelineHub {
	return &TimelineHub{projects: make(map[int64]map[*timelineClient]bool)}
}

var timelineUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Subscribe upgrades the request to a websocket and streams the project's
// timeline events until the peer disconnects.
func (h *TimelineHub) Subscribe(w http.ResponseWriter, r *http.Request, s *EditorSession) {
	conn, err := timelineUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &timelineClient{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 64),
		projectID: s.ProjectID,
	}
	h.register(client)

	// Hand the current state to the new subscriber right away.
	s.Lock()
	initial := snapshotPayload(s)
	s.Unlock()
	h.sendToClient(client, wsEvent{
		Type:      wsEventTimeline,
		ProjectID: s.ProjectID,
		Data:      initial,
		Timestamp: time.Now().UnixMilli(),
	})

	go client.writePump()
	client.readPump()
}

func (h *TimelineHub) register(c *timelineClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.projects[c.projectID] == nil {
		h.projects[c.projectID] = make(map[*timelineClient]bool)
	}
	h.projects[c.projectID][c] = true
	logger.Debug("Timeline subscriber connected", logger.Int64("projectId", c.projectID))
}

func (h *TimelineHub) unregister(c *timelineClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.projects[c.projectID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
			if len(clients) == 0 {
				delete(h.projects, c.projectID)
			}
		}
	}
}

// snapshotPayload builds the broadcast body. The caller must hold the
// session lock.
func snapshotPayload(s *EditorSession) timelinePayload {
	return sessionPayload(s, nil)
}

// BroadcastTimeline pushes the session's current state to every subscriber
// of its project. The caller must hold the session lock.
func (h *TimelineHub) BroadcastTimeline(s *EditorSession) {
	h.broadcast(s.ProjectID, wsEvent{
		Type:      wsEventTimeline,
		ProjectID: s.ProjectID,
		Data:      snapshotPayload(s),
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastPosition pushes a playhead position to every subscriber of a
// project. Safe to call from the scheduler tick goroutine.
func (h *TimelineHub) BroadcastPosition(projectID int64, positionMs int64) {
	h.broadcast(projectID, wsEvent{
		Type:      wsEventPosition,
		ProjectID: projectID,
		Data:      map[string]int64{"positionMs": positionMs},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *TimelineHub) broadcast(projectID int64, event wsEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal websocket event", logger.ErrorField(err))
		return
	}

	h.mu.RLock()
	clients := make([]*timelineClient, 0, len(h.projects[projectID]))
	for c := range h.projects[projectID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop the frame rather than block edits.
		}
	}
}

func (h *TimelineHub) sendToClient(c *timelineClient, event wsEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump drains the connection, answering pings; any other inbound frame
// is ignored because edits arrive over HTTP.
func (c *timelineClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Websocket read error",
					logger.Int64("projectId", c.projectID),
					logger.ErrorField(err))
			}
			return
		}

		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &probe); err == nil && probe.Type == "ping" {
			pong := wsEvent{Type: wsEventPong, ProjectID: c.projectID, Timestamp: time.Now().UnixMilli()}
			if data, err := json.Marshal(pong); err == nil {
				select {
				case c.send <- data:
				default:
				}
			}
		}
	}
}

func (c *timelineClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TimelineWSHandler is the HTTP entry point for timeline subscriptions.
func (h *APIHandler) TimelineWSHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	h.hub.Subscribe(w, r, s)
}
