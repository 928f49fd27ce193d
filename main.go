package main

import (
	"bufio"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"dronelink-cloud/internal/auth"
	identityapp "dronelink-cloud/internal/identity/application"
	identityrepo "dronelink-cloud/internal/identity/infrastructure/postgres"
	identityhttp "dronelink-cloud/internal/identity/interfaces/http"
	missionrepo "dronelink-cloud/internal/missions/infrastructure/postgres"
	missionhttp "dronelink-cloud/internal/missions/interfaces/http"
	"dronelink-cloud/internal/observability/metrics"
	"dronelink-cloud/internal/relay"
	telemetry "dronelink-cloud/internal/telemetry/domain"
	greptimewriter "dronelink-cloud/internal/telemetry/infrastructure/greptime"
	telemetryrepo "dronelink-cloud/internal/telemetry/infrastructure/postgres"
	telemetryhttp "dronelink-cloud/internal/telemetry/interfaces/http"
	"dronelink-cloud/internal/telemetry/sink"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()

	telemetryRepo := telemetryrepo.NewTelemetryRepository(db)
	telemetryQuery := telemetryrepo.NewTelemetryQuery(db)

	var recorder telemetry.Recorder = telemetryRepo
	if cfg.GreptimeEndpoint != "" {
		writer, err := greptimewriter.NewWriter(cfg.GreptimeEndpoint, cfg.GreptimeDatabase)
		if err != nil {
			logger.Fatalf("greptime writer error: %v", err)
		}
		recorder = telemetry.NewMultiRecorder(telemetryRepo, writer)
	}

	queue, err := sink.NewQueue(recorder, cfg.PersistQueueSize, logger)
	if err != nil {
		logger.Fatalf("persistence sink error: %v", err)
	}
	queue.Start()
	defer queue.Close()

	relayCfg, err := relay.LoadConfig()
	if err != nil {
		logger.Fatalf("relay config error: %v", err)
	}
	registry := relay.NewRegistry()
	dispatcher, err := relay.NewDispatcher(registry, queue, logger)
	if err != nil {
		logger.Fatalf("relay dispatcher error: %v", err)
	}
	relayHandler, err := relay.NewHandler([]byte(cfg.JWTSecret), relayCfg, dispatcher, logger)
	if err != nil {
		logger.Fatalf("relay handler error: %v", err)
	}

	userRepo := identityrepo.NewUserRepository(db)
	identityService, err := identityapp.NewService(userRepo, []byte(cfg.JWTSecret), logger)
	if err != nil {
		logger.Fatalf("identity service error: %v", err)
	}
	authHandler, err := identityhttp.NewAuthHandler(identityService, logger)
	if err != nil {
		logger.Fatalf("identity handler error: %v", err)
	}

	telemetryHandler, err := telemetryhttp.NewTelemetryHandler(telemetryRepo, telemetryQuery, logger)
	if err != nil {
		logger.Fatalf("telemetry handler error: %v", err)
	}

	missionRepo := missionrepo.NewMissionRepository(db)
	missionHandler, err := missionhttp.NewMissionHandler(missionRepo, logger)
	if err != nil {
		logger.Fatalf("mission handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/ws", "/api/register", "/api/login"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/ws", relayHandler)
	mux.Handle("/api/register", authHandler)
	mux.Handle("/api/login", authHandler)
	mux.Handle("/api/v1/telemetry", telemetryHandler)
	mux.Handle("/api/v1/telemetry/", telemetryHandler)
	mux.Handle("/api/v1/missions", missionHandler)
	mux.Handle("/api/v1/missions/", missionHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL      string
	HTTPAddr         string
	JWTSecret        string
	GreptimeEndpoint string
	GreptimeDatabase string
	PersistQueueSize int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		GreptimeEndpoint: getenvDefault("GREPTIME_ENDPOINT", ""),
		GreptimeDatabase: getenvDefault("GREPTIME_DB", "public"),
		PersistQueueSize: getenvIntDefault("PERSIST_QUEUE_SIZE", 1024),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
