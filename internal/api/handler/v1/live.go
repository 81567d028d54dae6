package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1/response"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	clientBuffer   = 64
	broadcastQueue = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

type liveClient struct {
	conn    *websocket.Conn
	send    chan []byte
	eventID uint
}

// LiveFeed fans attendance marks out to the organizers watching an event.
// Slow clients are dropped rather than blocking the hub.
type LiveFeed struct {
	clients    map[uint]map[*liveClient]struct{}
	broadcast  chan domain.AttendanceMark
	register   chan *liveClient
	unregister chan *liveClient
	done       chan struct{}
}

func NewLiveFeed() *LiveFeed {
	return &LiveFeed{
		clients:    make(map[uint]map[*liveClient]struct{}),
		broadcast:  make(chan domain.AttendanceMark, broadcastQueue),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		done:       make(chan struct{}),
	}
}

// Publish queues a mark for delivery. It never blocks the caller.
func (f *LiveFeed) Publish(mark domain.AttendanceMark) {
	select {
	case f.broadcast <- mark:
	default:
		zap.L().Warn("live feed queue full, mark dropped",
			zap.Uint("event_id", mark.EventID),
			zap.Uint("registration_id", mark.RegistrationID),
		)
	}
}

func (f *LiveFeed) Run(ctx context.Context) {
	defer close(f.done)

	for {
		select {
		case <-ctx.Done():
			for _, clients := range f.clients {
				for c := range clients {
					close(c.send)
				}
			}
			f.clients = map[uint]map[*liveClient]struct{}{}
			return
		case c := <-f.register:
			if f.clients[c.eventID] == nil {
				f.clients[c.eventID] = make(map[*liveClient]struct{})
			}
			f.clients[c.eventID][c] = struct{}{}
		case c := <-f.unregister:
			f.remove(c)
		case mark := <-f.broadcast:
			message, err := json.Marshal(mark)
			if err != nil {
				continue
			}
			for c := range f.clients[mark.EventID] {
				select {
				case c.send <- message:
				default:
					f.remove(c)
				}
			}
		}
	}
}

func (f *LiveFeed) remove(c *liveClient) {
	clients, ok := f.clients[c.eventID]
	if !ok {
		return
	}
	if _, ok = clients[c]; !ok {
		return
	}

	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(f.clients, c.eventID)
	}
}

type LiveHandler struct {
	feed   *LiveFeed
	events EventService
	uSvc   UserService
}

func NewLiveHandler(feed *LiveFeed, events EventService, uSvc UserService) *LiveHandler {
	return &LiveHandler{
		feed:   feed,
		events: events,
		uSvc:   uSvc,
	}
}

// HandleLiveAttendance godoc
// @Summary      Live check-in feed
// @Description  Websocket stream of attendance marks for an event. Pass the JWT as the token query parameter.
// @Tags         attendance
// @Param        eventID  path      int     true  "Event ID"
// @Param        token    query     string  false "JWT when the Authorization header cannot be set"
// @Success      101      {string}  string  "Switching Protocols to WebSocket"
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/attendance/live [get]
// @Security     BearerAuth
func (h *LiveHandler) HandleLiveAttendance(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := uintParam(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.events.Get(ctx.Request.Context(), user, eventID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(fmt.Errorf("v1.HandleLiveAttendance -> h.events.Get -> %w", err)))
		return
	}
	if !event.OwnedBy(user.ID) {
		response.RenderErr(ctx, response.FromError(domain.ErrNotEventOwner))
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &liveClient{
		conn:    conn,
		send:    make(chan []byte, clientBuffer),
		eventID: eventID,
	}
	select {
	case h.feed.register <- client:
	case <-h.feed.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.feed)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; listeners never send data.
func (c *liveClient) readPump(feed *LiveFeed) {
	defer func() {
		select {
		case feed.unregister <- c:
		case <-feed.done:
		}
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("live feed client closed", zap.Error(err))
			}
			return
		}
	}
}
