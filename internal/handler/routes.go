package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/purvaestates/voice-call-service/internal/adapters/elevenlabs"
	"github.com/purvaestates/voice-call-service/internal/adapters/twiliocall"
	"github.com/purvaestates/voice-call-service/internal/adapters/vapi"
	"github.com/purvaestates/voice-call-service/internal/cache"
	"github.com/purvaestates/voice-call-service/internal/config"
	"github.com/purvaestates/voice-call-service/internal/repository"
	"github.com/purvaestates/voice-call-service/internal/services/call"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// HandlerManager wires repositories, adapters and services into handlers
type HandlerManager struct {
	config       *config.Config
	repoManager  repository.RepositoryManager
	correlations *cache.CorrelationStore
	service      *call.Service
	synth        *elevenlabs.Client
}

// NewHandlerManager creates and initializes all services and handlers
func NewHandlerManager(cfg *config.Config) (*HandlerManager, error) {
	repoManager, err := repository.NewRepositoryManager()
	if err != nil {
		logger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}

	correlations := cache.NewCorrelationStore(cfg.Redis)
	vapiClient := vapi.NewClient(cfg.VAPI)
	twilioClient := twiliocall.NewClient(cfg.Twilio)
	synth := elevenlabs.NewClient(cfg.ElevenLabs)

	service := call.NewService(cfg, repoManager, vapiClient, twilioClient, correlations)

	return &HandlerManager{
		config:       cfg,
		repoManager:  repoManager,
		correlations: correlations,
		service:      service,
		synth:        synth,
	}, nil
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware)
	router.Use(LoggingMiddleware)

	router.HandleFunc("/health", hm.HandleHealth).Methods("GET")

	// Operator endpoints require an API key; provider webhooks and the
	// media stream authenticate by URL knowledge and carry no key header.
	operatorRouter := router.NewRoute().Subrouter()
	operatorRouter.Use(APIKeyMiddleware(hm.config.APISecretKey))
	NewOutboundCallHandler(hm.service).SetupOutboundCallRoutes(operatorRouter)

	NewVAPIWebhookHandler(hm.service).SetupVAPIWebhookRoutes(router)
	NewTwilioStatusHandler(hm.service).SetupTwilioStatusRoutes(router)
	NewMediaStreamHandler(hm.synth).SetupMediaStreamRoutes(router)

	logger.Base().Info("all application routes registered")
}

// HandleHealth reports service and database health
func (hm *HandlerManager) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := hm.repoManager.Ping(r.Context()); err != nil {
		logger.Base().Warn("health check database ping failed", zap.Error(err))
		sendJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "down",
		})
		return
	}

	sendJSONResponse(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "up",
	})
}

// Close releases database and cache connections
func (hm *HandlerManager) Close() {
	if err := hm.correlations.Close(); err != nil {
		logger.Base().Warn("failed to close correlation cache", zap.Error(err))
	}
	if err := hm.repoManager.Close(); err != nil {
		logger.Base().Warn("failed to close database connection", zap.Error(err))
	}
}
