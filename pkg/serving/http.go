package serving

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/synaptica-ai/mindmeter/pkg/artifact"
	"github.com/synaptica-ai/mindmeter/pkg/common/apperr"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/gateway/middleware"
	"github.com/synaptica-ai/mindmeter/pkg/observability/metrics"
	"github.com/synaptica-ai/mindmeter/pkg/serving/predictor"
)

// HomeMessage is the GET / liveness banner.
const HomeMessage = "MindMeter XGBoost Adherence API is running"

// History lists recent audit rows. *Repository implements it.
type History interface {
	Recent(ctx context.Context, limit int) ([]PredictionLog, error)
}

type HandlerConfig struct {
	MaxRequestBody int64
	CORSOrigin     string
	RateLimitRPS   int
	RateLimitBurst int
	// History enables GET /predictions when set.
	History History
}

type handler struct {
	service *Service
	history History
}

type modelResponse struct {
	Manifest    artifact.Manifest          `json:"manifest"`
	Importances []models.FeatureImportance `json:"feature_importances"`
}

type healthResponse struct {
	Status        string `json:"status"`
	BundleVersion string `json:"bundle_version"`
}

// NewHandler builds the router with its middleware chain.
func NewHandler(service *Service, cfg HandlerConfig) http.Handler {
	h := &handler{service: service, history: cfg.History}

	router := mux.NewRouter()
	router.HandleFunc("/", h.handleHome).Methods(http.MethodGet)
	router.HandleFunc("/predict", h.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/model", h.handleModel).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if h.history != nil {
		router.HandleFunc("/predictions", h.handleRecent).Methods(http.MethodGet)
	}
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	})

	// Wrapped outside the router so preflight and unmatched requests pass
	// through CORS, logging and recovery too.
	var chain http.Handler = router
	chain = middleware.BodyLimit(cfg.MaxRequestBody)(chain)
	chain = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)(chain)
	chain = middleware.CORS(cfg.CORSOrigin)(chain)
	chain = middleware.Logging(chain)
	return middleware.Recovery(chain)
}

func (h *handler) handleHome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.StatusResponse{Message: HomeMessage})
}

// handlePredict answers 200 with the prediction or 500 with the error and its
// kind. Every pipeline failure, including a malformed body, is a 500.
func (h *handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, apperr.InvalidRecord("request body too large", err))
			return
		}
		respondError(w, apperr.InvalidRecord("read request body", err))
		return
	}

	record, err := predictor.DecodeRecord(body)
	if err != nil {
		respondError(w, err)
		return
	}

	value, err := h.service.Predict(r.Context(), record)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.PredictionResponse{AdherencePrediction: value})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "healthy", BundleVersion: h.service.Bundle().Version()})
}

func (h *handler) handleModel(w http.ResponseWriter, r *http.Request) {
	bundle := h.service.Bundle()
	respondJSON(w, http.StatusOK, modelResponse{Manifest: bundle.Manifest, Importances: bundle.Importances})
}

// handleRecent lists audit rows newest first. limit defaults to 50 when absent
// or not a positive integer and is capped at 500.
func (h *handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := recentLimit(r.URL.Query().Get("limit"))
	logs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func recentLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusInternalServerError, models.ErrorResponse{
		Error: err.Error(),
		Kind:  string(apperr.KindOf(err)),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to write json response")
	}
}
