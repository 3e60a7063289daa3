package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gaslessvoting "daoboard/contexts/governance/gasless-voting"
	governanceerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	governancehttp "daoboard/contexts/governance/gasless-voting/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "daoboard/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	governance gaslessvoting.Module
}

func New(governance gaslessvoting.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		governance: governance,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing mux, used by httptest in integration tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /gasless/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /gasless/sagas/{saga_id}", s.handleSagaState)
	s.mux.HandleFunc("POST /gasless/votes", s.handleVote)
	s.mux.HandleFunc("GET /gasless/proposals/{proposal_id}/approval", s.handleApprovalState)
	s.mux.HandleFunc("GET /gasless/proposals/{proposal_id}/voted", s.handleHasVoted)
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req governancehttp.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.CreateProposalHandler(r.Context(), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSagaState(w http.ResponseWriter, r *http.Request) {
	sagaID := r.PathValue("saga_id")
	resp, err := s.governance.Handler.SagaStateHandler(r.Context(), sagaID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req governancehttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.VoteHandler(r.Context(), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApprovalState(w http.ResponseWriter, r *http.Request) {
	caller := strings.TrimSpace(r.Header.Get("X-Caller-Address"))
	if caller == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}

	proposalID := r.PathValue("proposal_id")
	resp, err := s.governance.Handler.ApprovalStateHandler(r.Context(), proposalID, caller)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("proposal_id")
	resp, err := s.governance.Handler.HasVotedHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, governanceerrors.ErrProposalNotFound):
		writeGovernanceError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, governanceerrors.ErrSagaNotFound):
		writeGovernanceError(w, http.StatusNotFound, "saga_not_found", err.Error())
	case errors.Is(err, governanceerrors.ErrNoLinkedElection):
		writeGovernanceError(w, http.StatusConflict, "no_linked_election", err.Error())
	case errors.Is(err, governanceerrors.ErrSagaBusy):
		writeGovernanceError(w, http.StatusConflict, "saga_busy", err.Error())
	case errors.Is(err, governanceerrors.ErrProposalConflict):
		writeGovernanceError(w, http.StatusConflict, "proposal_conflict", err.Error())
	case errors.Is(err, governanceerrors.ErrInvalidVoteChoice):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_vote_choice", err.Error())
	case errors.Is(err, governanceerrors.ErrInvalidProposal):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_proposal", err.Error())
	case errors.Is(err, governanceerrors.ErrTokenNotConfigured):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "token_not_configured", err.Error())
	case errors.Is(err, governanceerrors.ErrCensusNotSynced):
		writeGovernanceError(w, http.StatusGatewayTimeout, "census_not_synced", err.Error())
	case errors.Is(err, governanceerrors.ErrAccountUnavailable),
		errors.Is(err, governanceerrors.ErrFaucetStalled),
		errors.Is(err, governanceerrors.ErrNoElectionBound):
		writeGovernanceError(w, http.StatusBadGateway, "voting_backend_unavailable", err.Error())
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
