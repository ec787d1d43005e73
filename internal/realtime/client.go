package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pulsedeck/backend/internal/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope, both directions.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection. Audience connections are
// anonymous (OwnerID is uuid.Nil); presenter connections carry the owner id
// resolved once from their token at the boundary.
type Client struct {
	ID      string
	OwnerID uuid.UUID

	hub       *Hub
	conn      *websocket.Conn
	send      chan WSMessage
	groups    map[string]struct{} // guarded by hub.mu
	audience  *live.Audience
	presenter *live.Presenter
	logger    *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. The token
// query parameter is optional: without it the connection is an anonymous
// audience member; with it the connection acts for the resolved presenter.
func ServeWs(hub *Hub, logger *zap.Logger, audience *live.Audience, presenter *live.Presenter, resolveOwner func(token string) (uuid.UUID, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := uuid.Nil
		if token := c.Query("token"); token != "" {
			id, err := resolveOwner(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			ownerID = id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:        uuid.New().String(),
			OwnerID:   ownerID,
			hub:       hub,
			conn:      conn,
			send:      make(chan WSMessage, 256),
			groups:    make(map[string]struct{}),
			audience:  audience,
			presenter: presenter,
			logger:    logger,
		}
		go client.writePump()
		client.readPump()
	}
}

// presentationRef is the payload of commands addressing a presentation.
type presentationRef struct {
	PresentationID uuid.UUID `json:"presentation_id"`
}

// questionRef is the payload of commands addressing a question.
type questionRef struct {
	QuestionID uuid.UUID `json:"question_id"`
}

// submitPayload is the SubmitResponse command payload.
type submitPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
	Value      string    `json:"value"`
	SessionID  string    `json:"session_id"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.dispatch(context.Background(), msg)
	}
}

// dispatch executes one inbound command. A rejected command only yields a
// point-to-point Error event; it never closes the connection.
func (c *Client) dispatch(ctx context.Context, msg WSMessage) {
	switch msg.Event {
	case "JoinPresentation":
		var ref presentationRef
		if !c.bind(msg.Data, &ref) {
			return
		}
		payload, err := c.audience.Join(ctx, ref.PresentationID)
		if err != nil {
			c.sendError(err)
			return
		}
		c.hub.Join(c, live.PresentationGroup(ref.PresentationID))
		c.sendEvent(live.EventJoinedPresentation, payload)

	case "LeavePresentation":
		var ref presentationRef
		if !c.bind(msg.Data, &ref) {
			return
		}
		c.hub.Leave(c, live.PresentationGroup(ref.PresentationID))
		c.sendEvent(live.EventLeftPresentation, live.LeftPresentationPayload{PresentationID: ref.PresentationID})

	case "SubmitResponse":
		var req submitPayload
		if !c.bind(msg.Data, &req) {
			return
		}
		resp, err := c.audience.SubmitResponse(ctx, req.QuestionID, req.SessionID, req.Value)
		if err != nil {
			c.sendError(err)
			return
		}
		c.sendEvent(live.EventResponseSubmitted, live.ResponseSubmittedPayload{
			ResponseID: resp.ID,
			QuestionID: resp.QuestionID,
			Timestamp:  resp.CreatedAt,
		})

	case "JoinPresenterSession":
		var ref presentationRef
		if !c.bind(msg.Data, &ref) || !c.requireOwner() {
			return
		}
		session, err := c.presenter.JoinSession(ctx, ref.PresentationID, c.OwnerID)
		if err != nil {
			c.sendError(err)
			return
		}
		c.hub.Join(c, live.PresenterGroup(ref.PresentationID))
		c.sendEvent(live.EventJoinedPresentation, live.JoinedPresentationPayload{
			PresentationID: ref.PresentationID,
			Session:        session,
		})

	case "StartLiveSession":
		var ref presentationRef
		if !c.bind(msg.Data, &ref) || !c.requireOwner() {
			return
		}
		if _, err := c.presenter.StartLive(ctx, ref.PresentationID, c.OwnerID); err != nil {
			c.sendError(err)
		}

	case "EndLiveSession":
		var ref presentationRef
		if !c.bind(msg.Data, &ref) || !c.requireOwner() {
			return
		}
		if _, err := c.presenter.EndLive(ctx, ref.PresentationID, c.OwnerID); err != nil {
			c.sendError(err)
		}

	case "ActivateQuestion":
		var ref questionRef
		if !c.bind(msg.Data, &ref) || !c.requireOwner() {
			return
		}
		if _, err := c.presenter.ActivateQuestion(ctx, ref.QuestionID, c.OwnerID); err != nil {
			c.sendError(err)
		}

	case "DeactivateQuestion":
		var ref questionRef
		if !c.bind(msg.Data, &ref) || !c.requireOwner() {
			return
		}
		if _, err := c.presenter.DeactivateQuestion(ctx, ref.QuestionID, c.OwnerID); err != nil {
			c.sendError(err)
		}

	default:
		// ignore
	}
}

func (c *Client) bind(data json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(data, v); err != nil {
		c.sendEvent(live.EventError, live.ErrorPayload{Message: "invalid command payload"})
		return false
	}
	return true
}

func (c *Client) requireOwner() bool {
	if c.OwnerID == uuid.Nil {
		c.sendError(live.ErrUnauthorized)
		return false
	}
	return true
}

func (c *Client) sendEvent(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

// sendError answers a rejected command. Expected rejections carry their own
// message; collaborator failures surface as a generic retryable message and
// are logged here, once.
func (c *Client) sendError(err error) {
	msg := err.Error()
	if !live.IsExpected(err) {
		msg = live.ErrTransient.Error()
		c.logger.Error("command failed", zap.Error(err), zap.String("client_id", c.ID))
	}
	c.sendEvent(live.EventError, live.ErrorPayload{Message: msg})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
