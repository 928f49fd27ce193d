package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"dronelink-cloud/internal/identity/application"
	identity "dronelink-cloud/internal/identity/domain"
)

// AuthHandler serves POST /api/register and POST /api/login.
type AuthHandler struct {
	service *application.Service
	logger  *log.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service *application.Service, logger *log.Logger) (*AuthHandler, error) {
	if service == nil {
		return nil, errors.New("identity http: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &AuthHandler{service: service, logger: logger}, nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ServeHTTP routes registration and login.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	switch r.URL.Path {
	case "/api/register":
		h.register(w, r, req)
	case "/api/login":
		h.login(w, r, req)
	default:
		http.NotFound(w, r)
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, req credentialsRequest) {
	if err := h.service.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, identity.ErrDuplicateUsername) || errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "registration failed")
			return
		}
		h.logger.Printf("identity: register error: %v", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, req credentialsRequest) {
	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		h.logger.Printf("identity: login error: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, map[string]any{"token": token})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
