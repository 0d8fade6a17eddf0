// Package live pushes booking queue changes to open dashboards over
// websockets. Each dashboard subscribes to one topic; a write to a collection
// is announced on every topic that displays it.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"learnspace/models"
	"learnspace/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Dashboard topics.
const (
	TopicAdmin     = "admin"
	TopicTeacher   = "teacher"
	TopicOrganiser = "organiser"
)

// Event tells subscribers that a collection changed and should be refetched.
type Event struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
}

func UpdateEvent(collection string) Event {
	return Event{Type: "update", Collection: collection}
}

// Publisher announces collection changes. Implementations must not block the
// caller on slow subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// TopicsFor lists the dashboards that show a collection.
func TopicsFor(collection string) []string {
	switch collection {
	case models.AdminRequests:
		return []string{TopicAdmin}
	case models.TeacherRequests:
		return []string{TopicTeacher}
	case models.OrganiserRequests:
		return []string{TopicOrganiser}
	case models.Rooms:
		return []string{TopicAdmin, TopicTeacher, TopicOrganiser}
	}
	return nil
}

func validTopic(topic string) bool {
	switch topic {
	case TopicAdmin, TopicTeacher, TopicOrganiser:
		return true
	}
	return false
}

// TopicAllows reports whether role may subscribe to topic. Admin may watch
// every dashboard.
func TopicAllows(topic string, role models.Role) bool {
	if role == models.RoleAdmin {
		return validTopic(topic)
	}
	switch topic {
	case TopicTeacher:
		return role == models.RoleFaculty
	case TopicOrganiser:
		return role == models.RoleOrganizer
	}
	return false
}

type Client struct {
	Conn  *websocket.Conn
	Send  chan []byte
	Topic string
}

type broadcastMsg struct {
	Topic string
	Data  []byte
}

type Hub struct {
	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.topics[c.Topic] == nil {
				h.topics[c.Topic] = make(map[*Client]bool)
			}
			h.topics[c.Topic][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.topics[c.Topic]; conns != nil && conns[c] {
				delete(conns, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.topics[m.Topic] {
				select {
				case c.Send <- m.Data:
				default:
					// slow reader; drop it rather than stall the hub
					close(c.Send)
					delete(h.topics[m.Topic], c)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, conns := range h.topics {
				for c := range conns {
					close(c.Send)
				}
			}
			h.topics = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Publish delivers ev to the local subscribers of every affected topic.
func (h *Hub) Publish(_ context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode live event", zap.Error(err))
		return
	}
	for _, topic := range TopicsFor(ev.Collection) {
		select {
		case h.broadcast <- broadcastMsg{Topic: topic, Data: data}:
		case <-h.quit:
			return
		default:
			h.logger.Warn("live broadcast queue full, event dropped",
				zap.String("topic", topic), zap.String("collection", ev.Collection))
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWS handles GET /ws/:topic. Expects authentication in front; the
// caller's role must be allowed on the topic.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	topic := ps.ByName("topic")
	if !validTopic(topic) {
		http.Error(w, "Unknown topic", http.StatusNotFound)
		return
	}
	if !TopicAllows(topic, models.Role(utils.GetRoleFromRequest(r))) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		Conn:  conn,
		Send:  make(chan []byte, 16),
		Topic: topic,
	}

	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}
	go writePump(client)
	readPump(client, h)
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// readPump keeps the connection open until the client goes away. Dashboards
// never send anything meaningful.
func readPump(c *Client, h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.quit:
		}
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
