// Package api exposes the orchestrator operations over HTTP
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/stablerail/cctp-orchestrator/pkg/app/errors"
	apphttp "github.com/stablerail/cctp-orchestrator/pkg/app/http"
	"github.com/stablerail/cctp-orchestrator/pkg/bridge"
	"github.com/stablerail/cctp-orchestrator/pkg/config"
)

// Orchestrator is the service surface the API exposes
type Orchestrator interface {
	InitiateBridge(ctx context.Context, params bridge.InitiateParams) (*bridge.InitiateResult, error)
	ProcessBurnTransaction(ctx context.Context, bridgeID, txHash, sourceChain string) error
	CompleteBridge(ctx context.Context, bridgeID string) (*bridge.CompleteResult, error)
	RetryAttestation(ctx context.Context, bridgeID string) error
	GetBridgeStatus(ctx context.Context, bridgeID string) (*bridge.BridgeRecord, error)
	GetAllBridgeStatuses(ctx context.Context) ([]*bridge.BridgeRecord, error)
}

// Server holds the API handlers
type Server struct {
	orchestrator Orchestrator
	validate     *validator.Validate
	auth         config.AuthConfig
	monitoring   bool
	logger       *zap.Logger
}

// NewServer creates the API server
func NewServer(orchestrator Orchestrator, auth config.AuthConfig, monitoring bool, logger *zap.Logger) *Server {
	return &Server{
		orchestrator: orchestrator,
		validate:     validator.New(),
		auth:         auth,
		monitoring:   monitoring,
		logger:       logger,
	}
}

// Router builds the chi router with all routes and middleware
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	if s.monitoring {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/bridges", apphttp.HandleError(s.listBridges))
		r.Get("/bridges/{id}", apphttp.HandleError(s.getBridge))

		r.Group(func(r chi.Router) {
			if s.auth.JWTSecret != "" {
				r.Use(s.requireJWT)
			}
			r.Post("/bridges", apphttp.HandleError(s.initiateBridge))
			r.Post("/bridges/{id}/burn", apphttp.HandleError(s.processBurn))
			r.Post("/bridges/{id}/complete", apphttp.HandleError(s.completeBridge))
			r.Post("/bridges/{id}/retry", apphttp.HandleError(s.retryAttestation))
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if _, err := s.orchestrator.GetAllBridgeStatuses(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type initiateRequest struct {
	SourceChain      string `json:"source_chain" validate:"required"`
	DestinationChain string `json:"destination_chain" validate:"required"`
	Amount           string `json:"amount" validate:"required"`
	RecipientAddress string `json:"recipient_address" validate:"required"`
	EVMAddress       string `json:"evm_address"`
	Destination      string `json:"destination" validate:"omitempty,oneof=wallet vault"`
}

func (s *Server) initiateBridge(w http.ResponseWriter, r *http.Request) error {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequestError(err, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return apperrors.BadRequestError(err, err.Error())
	}

	result, err := s.orchestrator.InitiateBridge(r.Context(), bridge.InitiateParams{
		SourceChain:      req.SourceChain,
		DestinationChain: req.DestinationChain,
		Amount:           req.Amount,
		RecipientAddress: req.RecipientAddress,
		EVMAddress:       req.EVMAddress,
		Destination:      bridge.Destination(req.Destination),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, result)
	return nil
}

type processBurnRequest struct {
	TxHash      string `json:"tx_hash" validate:"required"`
	SourceChain string `json:"source_chain" validate:"required"`
}

func (s *Server) processBurn(w http.ResponseWriter, r *http.Request) error {
	var req processBurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequestError(err, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return apperrors.BadRequestError(err, err.Error())
	}

	id := chi.URLParam(r, "id")
	if err := s.orchestrator.ProcessBurnTransaction(r.Context(), id, req.TxHash, req.SourceChain); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

func (s *Server) completeBridge(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	result, err := s.orchestrator.CompleteBridge(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

type retryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) retryAttestation(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	err := s.orchestrator.RetryAttestation(r.Context(), id)
	if err != nil {
		// Precondition failures are reported in the response body so the
		// frontend can show the reason without special error handling.
		var svcErr *apperrors.ServiceError
		if errors.As(err, &svcErr) && svcErr.Category == apperrors.CategoryDataConflict {
			writeJSON(w, http.StatusOK, retryResponse{Success: false, Message: svcErr.Message})
			return nil
		}
		return err
	}
	writeJSON(w, http.StatusOK, retryResponse{Success: true, Message: "attestation polling restarted"})
	return nil
}

func (s *Server) getBridge(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	record, err := s.orchestrator.GetBridgeStatus(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, record)
	return nil
}

func (s *Server) listBridges(w http.ResponseWriter, r *http.Request) error {
	records, err := s.orchestrator.GetAllBridgeStatuses(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, records)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
