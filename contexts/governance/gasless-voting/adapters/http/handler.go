package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"daoboard/contexts/governance/gasless-voting/application/commands"
	"daoboard/contexts/governance/gasless-voting/application/queries"
	"daoboard/contexts/governance/gasless-voting/application/stepper"
	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"
	httptransport "daoboard/contexts/governance/gasless-voting/transport/http"
)

// Handler exposes the gasless sagas and queries in a transport-agnostic
// shape. Proposal sagas are stateful across requests: a failed run keeps its
// step map so the client retries with the same saga id and only the failed
// steps re-execute. Vote sagas are per-request.
type Handler struct {
	NewProposalSaga func(registrar ports.OnchainRegistrar) *commands.CreateProposalSaga
	NewVoteSaga     func() *commands.VoteSaga

	Approvals  queries.ApprovalUseCase
	VoteStatus queries.VoteStatusUseCase
	Proposals  ports.ProposalIndex
	IDGen      ports.IDGenerator

	DAODomain  string
	DAOAddress string
	Logger     *slog.Logger

	mu    sync.Mutex
	sagas map[string]*commands.CreateProposalSaga
}

// CreateProposalHandler runs the proposal saga identified by the request's
// saga id, allocating a fresh saga when no id is supplied. A step failure is
// not an error at this layer: the response carries the failed step map and
// the client re-invokes with the same saga id. Errors the step map does not
// hold (missing fields, saga busy, token not configured, a registrar failure
// while resubmitting a completed saga) surface as errors instead.
func (h *Handler) CreateProposalHandler(
	ctx context.Context,
	req httptransport.CreateProposalRequest,
) (httptransport.SagaStateResponse, error) {
	if strings.TrimSpace(req.ProposalID) == "" || strings.TrimSpace(req.Title) == "" {
		return httptransport.SagaStateResponse{}, domainerrors.ErrInvalidProposal
	}

	sagaID := strings.TrimSpace(req.SagaID)
	if sagaID == "" {
		generated, err := h.IDGen.NewID(ctx)
		if err != nil {
			return httptransport.SagaStateResponse{}, err
		}
		sagaID = generated
	}
	saga := h.sagaFor(sagaID, req)

	err := saga.CreateProposal(ctx,
		entities.ProposalMetadata{
			Title:       req.Title,
			Summary:     req.Summary,
			Description: req.Description,
		},
		entities.ProposalParams{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		},
	)
	if err != nil {
		// Only errors recorded in the step map are retryable through the
		// saga state; everything else (busy, pre-flight rejections, a
		// registrar failure on the completed-saga resubmission path) is
		// relayed to the caller.
		if errors.Is(err, domainerrors.ErrSagaBusy) || !stepErrorRecorded(saga) {
			return httptransport.SagaStateResponse{}, err
		}
	}

	return h.sagaState(sagaID, saga), nil
}

// stepErrorRecorded reports whether the saga's failure is held by a step and
// therefore visible in the returned step map.
func stepErrorRecorded(saga *commands.CreateProposalSaga) bool {
	for _, snapshot := range saga.Steps() {
		if snapshot.State.Status == stepper.StatusError {
			return true
		}
	}
	return false
}

// SagaStateHandler reports the current step map of a proposal saga.
func (h *Handler) SagaStateHandler(_ context.Context, sagaID string) (httptransport.SagaStateResponse, error) {
	h.mu.Lock()
	saga, ok := h.sagas[strings.TrimSpace(sagaID)]
	h.mu.Unlock()
	if !ok {
		return httptransport.SagaStateResponse{}, domainerrors.ErrSagaNotFound
	}
	return h.sagaState(strings.TrimSpace(sagaID), saga), nil
}

// VoteHandler submits one gasless vote through a fresh vote saga.
func (h *Handler) VoteHandler(ctx context.Context, req httptransport.VoteRequest) (httptransport.VoteResponse, error) {
	saga := h.NewVoteSaga()
	voteID, err := saga.Vote(ctx, entities.VoteParams{
		ProposalID: strings.TrimSpace(req.ProposalID),
		Choice:     entities.VoteChoice(req.Choice),
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ProposalID:  strings.TrimSpace(req.ProposalID),
		VoteID:      voteID,
		GlobalState: string(saga.GlobalState()),
		Steps:       stepStates(saga.Steps()),
	}, nil
}

// ApprovalStateHandler derives the committee-approval state of a proposal for
// the calling address.
func (h *Handler) ApprovalStateHandler(
	ctx context.Context,
	proposalID string,
	caller string,
) (httptransport.ApprovalStateResponse, error) {
	proposal, err := h.Proposals.GetProposal(ctx, strings.TrimSpace(proposalID), h.DAODomain, h.DAOAddress)
	if err != nil {
		return httptransport.ApprovalStateResponse{}, err
	}
	state := h.Approvals.State(proposal, caller)
	canApprove, err := h.Approvals.CanApprove(ctx, proposal, caller)
	if err != nil {
		return httptransport.ApprovalStateResponse{}, err
	}
	return httptransport.ApprovalStateResponse{
		ProposalID:          proposal.ProposalID,
		IsApprovalPeriod:    state.IsApprovalPeriod,
		CanBeApproved:       state.CanBeApproved,
		Approved:            state.Approved,
		IsApproved:          state.IsApproved,
		CanBeExecuted:       state.CanBeExecuted,
		NextVoteWillApprove: state.NextVoteWillApprove,
		Executed:            state.Executed,
		NotBegan:            state.NotBegan,
		CanApprove:          canApprove,
	}, nil
}

// HasVotedHandler reports whether the organization account already voted on
// the election linked to the proposal.
func (h *Handler) HasVotedHandler(ctx context.Context, proposalID string) (httptransport.HasVotedResponse, error) {
	proposal, err := h.Proposals.GetProposal(ctx, strings.TrimSpace(proposalID), h.DAODomain, h.DAOAddress)
	if err != nil {
		return httptransport.HasVotedResponse{}, err
	}
	return httptransport.HasVotedResponse{
		ProposalID: proposal.ProposalID,
		HasVoted:   h.VoteStatus.HasAlreadyVoted(ctx, proposal),
	}, nil
}

// sagaFor returns the proposal saga registered under sagaID, creating and
// registering it on first use. The registrar closure indexes the proposal
// once the saga hands over the election id; a resubmission with no election
// id keeps the fields of the already-indexed record.
func (h *Handler) sagaFor(sagaID string, req httptransport.CreateProposalRequest) *commands.CreateProposalSaga {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sagas == nil {
		h.sagas = make(map[string]*commands.CreateProposalSaga)
	}
	if saga, ok := h.sagas[sagaID]; ok {
		return saga
	}
	saga := h.NewProposalSaga(ports.RegistrarFunc(func(ctx context.Context, electionID string) error {
		return h.indexProposal(ctx, req, electionID)
	}))
	h.sagas[sagaID] = saga
	return saga
}

func (h *Handler) indexProposal(ctx context.Context, req httptransport.CreateProposalRequest, electionID string) error {
	proposal := entities.Proposal{
		ProposalID:        strings.TrimSpace(req.ProposalID),
		DAODomain:         h.DAODomain,
		DAOAddress:        h.DAOAddress,
		PluginAddress:     strings.TrimSpace(req.PluginAddress),
		ElectionID:        electionID,
		EndDate:           req.EndDate,
		ExpirationDate:    req.ExpirationDate,
		Status:            entities.ProposalStatusActive,
		MinTallyApprovals: req.MinTallyApprovals,
	}
	if electionID == "" {
		existing, err := h.Proposals.GetProposal(ctx, proposal.ProposalID, h.DAODomain, h.DAOAddress)
		if err == nil {
			proposal.ElectionID = existing.ElectionID
			proposal.Status = existing.Status
			proposal.Approvers = existing.Approvers
			proposal.Executed = existing.Executed
		} else if !errors.Is(err, domainerrors.ErrProposalNotFound) {
			return err
		}
	}
	return h.Proposals.SaveProposal(ctx, proposal)
}

func (h *Handler) sagaState(sagaID string, saga *commands.CreateProposalSaga) httptransport.SagaStateResponse {
	return httptransport.SagaStateResponse{
		SagaID:      sagaID,
		GlobalState: string(saga.GlobalState()),
		Steps:       stepStates(saga.Steps()),
		ElectionID:  saga.ElectionID(),
	}
}

func stepStates[K ~string](states []stepper.StepState[K]) []httptransport.StepState {
	items := make([]httptransport.StepState, 0, len(states))
	for _, state := range states {
		item := httptransport.StepState{
			ID:     string(state.ID),
			Status: string(state.State.Status),
		}
		if state.State.Err != nil {
			item.Error = state.State.Err.Error()
		}
		items = append(items, item)
	}
	return items
}
