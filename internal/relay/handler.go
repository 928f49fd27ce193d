package relay

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"dronelink-cloud/internal/auth"
	"dronelink-cloud/internal/observability/metrics"
)

// Handler is the connection gate: it authenticates the handshake, upgrades
// the transport, and starts the connection's pumps. A missing or invalid
// token is refused before any relay state exists.
type Handler struct {
	secret     []byte
	cfg        Config
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	logger     *log.Logger
}

// NewHandler constructs the relay endpoint handler.
func NewHandler(secret []byte, cfg Config, dispatcher *Dispatcher, logger *log.Logger) (*Handler, error) {
	if len(secret) == 0 {
		return nil, errors.New("relay: empty secret")
	}
	if dispatcher == nil {
		return nil, errors.New("relay: nil dispatcher")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		secret:     secret,
		cfg:        cfg,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}, nil
}

// ServeHTTP handles GET /ws.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractBearer(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	claims, err := auth.ParseToken(token, h.secret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.logger.Printf("relay: upgrade error: %v", err)
		return
	}

	client := newClient(uuid.NewString(), claims.Identity(), conn, h.cfg.SendBuffer)
	metrics.IncConnections()
	h.logger.Printf("relay: connected %s user=%s role=%s", client.ID(), client.Identity().DisplayName, client.Identity().Role)

	go client.writePump(h.cfg)
	client.readPump(h.dispatcher, h.cfg, h.logger)
}
