package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"messenger/internal/delivery"
	"messenger/internal/message"
	"messenger/internal/presence"
	"messenger/internal/registry"
	"messenger/pkg/jwt"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are the reverse proxy's concern in this deployment.
		return true
	},
}

// Handler is the real-time transport adapter: it authenticates websocket
// connects, feeds the connection registry, and maps inbound frames onto the
// domain managers.
type Handler struct {
	registry *registry.Registry
	presence *presence.Manager
	messages *message.Manager
	router   *delivery.Router
	tokens   *jwt.JWT
	log      zerolog.Logger
}

func NewHandler(
	reg *registry.Registry,
	presenceMgr *presence.Manager,
	messageMgr *message.Manager,
	router *delivery.Router,
	tokens *jwt.JWT,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		registry: reg,
		presence: presenceMgr,
		messages: messageMgr,
		router:   router,
		tokens:   tokens,
		log:      log.With().Str("component", "gateway").Logger(),
	}
}

func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/ws", h.serveWS)
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/presence/online", h.handleOnlineUsers).Methods(http.MethodGet)
	r.HandleFunc("/presence/{userID}", h.handleVisiblePresence).Methods(http.MethodGet)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// authenticate extracts the user id from the bearer token, falling back to
// the query param some websocket clients are limited to.
func (h *Handler) authenticate(r *http.Request) (string, bool) {
	token := r.Header.Get("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", false
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("token rejected")
		return "", false
	}
	return claims.UserID, true
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	platform := presence.Platform(r.URL.Query().Get("platform"))
	if platform == "" {
		platform = presence.PlatformWeb
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(conn, userID, h.log)
	h.registry.RegisterClient(userID, client)

	ctx := context.Background()
	device := presence.DeviceInfo{AppVersion: r.Header.Get("X-App-Version"), Model: r.UserAgent()}
	if _, err := h.presence.SetOnline(ctx, userID, platform, device); err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("failed to mark user online")
	}

	go client.writePump()
	go client.readPump(
		func(data []byte) { h.handleFrame(client, data) },
		func() { h.disconnect(client) },
	)
}

func (h *Handler) disconnect(client *Client) {
	remaining := h.registry.UnregisterClient(client.userID, client)
	if remaining {
		return
	}
	if _, err := h.presence.SetOffline(context.Background(), client.userID); err != nil {
		h.log.Warn().Err(err).Str("user_id", client.userID).Msg("failed to mark user offline")
	}
}

// frame is the inbound tagged JSON envelope, one object per logical event.
type frame struct {
	Type        string          `json:"type"`
	DialogID    string          `json:"dialog_id,omitempty"`
	MessageType message.Type    `json:"message_type,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	ReplyToID   *string         `json:"reply_to_id,omitempty"`
	Activity    string          `json:"activity,omitempty"`
}

type ack struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) handleFrame(client *Client, data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		h.reply(client, ack{Type: "error", Error: "malformed frame"})
		return
	}

	ctx := context.Background()
	switch f.Type {
	case "send_message":
		h.handleSend(ctx, client, f)
	case "activity":
		if _, err := h.presence.UpdateActivity(ctx, client.userID, presence.Activity(f.Activity)); err != nil {
			h.reply(client, ack{Type: "error", Error: err.Error()})
		}
	default:
		h.reply(client, ack{Type: "error", Error: "unknown frame type: " + f.Type})
	}
}

func (h *Handler) handleSend(ctx context.Context, client *Client, f frame) {
	content, err := message.ParseContent(f.MessageType, f.Content)
	if err != nil {
		h.reply(client, ack{Type: "error", Error: err.Error()})
		return
	}

	result, err := h.messages.SendMessage(ctx, f.DialogID, client.userID, f.MessageType, content, f.ReplyToID)
	if err != nil {
		h.reply(client, ack{Type: "error", Error: err.Error()})
		return
	}

	// Fan-out is best-effort; the sender only learns the message was accepted.
	if _, err := h.router.DeliverMessage(ctx, result.Message, result.Recipients); err != nil {
		h.log.Warn().Err(err).Str("message_id", result.Message.ID).Msg("delivery fan-out failed")
	}

	h.reply(client, ack{Type: "ack", MessageID: result.Message.ID})
}

func (h *Handler) reply(client *Client, a ack) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := client.Send(raw); err != nil {
		h.log.Debug().Err(err).Str("user_id", client.userID).Msg("failed to send ack")
	}
}

func (h *Handler) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	users, err := h.presence.GetOnlineUsers(r.Context())
	if err != nil {
		http.Error(w, "failed to fetch online users", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(users)
}

func (h *Handler) handleVisiblePresence(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	subjectID := mux.Vars(r)["userID"]
	// Contact graphs live outside this core; the flag arrives from the caller.
	isContact := r.URL.Query().Get("contact") == "true"

	view, err := h.presence.GetVisiblePresence(r.Context(), subjectID, requesterID, isContact)
	if err != nil {
		http.Error(w, "presence not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}
