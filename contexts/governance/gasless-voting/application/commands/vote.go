package commands

import (
	"context"
	"log/slog"
	"sync/atomic"

	application "daoboard/contexts/governance/gasless-voting/application"
	"daoboard/contexts/governance/gasless-voting/application/stepper"
	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"
)

// VoteStepID identifies one step of the gasless vote saga.
type VoteStepID string

const (
	StepResolveElection VoteStepID = "resolve_election"
	StepPublishVote     VoteStepID = "publish_vote"
)

// VoteSteps returns the saga steps in execution order.
func VoteSteps() []VoteStepID {
	return []VoteStepID{StepResolveElection, StepPublishVote}
}

// VoteDeps are the collaborators of the vote saga. DAODomain and DAOAddress
// scope proposal lookups to the organization the dashboard serves.
type VoteDeps struct {
	Proposals  ports.ProposalIndex
	Ballots    ports.BallotService
	DAODomain  string
	DAOAddress string
	Logger     *slog.Logger
}

// VoteSaga submits one gasless vote: resolve the election bound to the
// proposal, then publish the ballot. One saga value belongs to one user
// action.
type VoteSaga struct {
	deps  VoteDeps
	steps *stepper.Stepper[VoteStepID]
	busy  atomic.Bool
}

func NewVoteSaga(deps VoteDeps) *VoteSaga {
	return &VoteSaga{
		deps:  deps,
		steps: stepper.New(VoteSteps()...),
	}
}

// Steps returns a snapshot of the per-step states in execution order.
func (s *VoteSaga) Steps() []stepper.StepState[VoteStepID] {
	return s.steps.States()
}

// GlobalState is the derived aggregate status of the saga.
func (s *VoteSaga) GlobalState() stepper.Status {
	return s.steps.Global()
}

// Vote runs the saga and returns the external vote id. A missing
// proposal-to-election mapping fails without retry: unlike census syncing it
// is not eventually consistent. The caller-facing one-based choice is
// submitted in the voting backend's zero-based representation.
func (s *VoteSaga) Vote(ctx context.Context, params entities.VoteParams) (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", domainerrors.ErrSagaBusy
	}
	defer s.busy.Store(false)

	logger := application.ResolveLogger(s.deps.Logger)
	logger.Info("gasless vote started",
		"event", "gasless_vote_started",
		"module", "governance/gasless-voting",
		"layer", "application",
		"proposal_id", params.ProposalID,
	)

	if s.steps.Global() == stepper.StatusError {
		s.steps.Reset()
	}

	electionID, err := stepper.Do(ctx, s.steps, StepResolveElection, func(ctx context.Context) (string, error) {
		proposal, err := s.deps.Proposals.GetProposal(ctx, params.ProposalID, s.deps.DAODomain, s.deps.DAOAddress)
		if err != nil {
			return "", err
		}
		if proposal.ElectionID == "" {
			return "", domainerrors.ErrNoLinkedElection
		}
		return proposal.ElectionID, nil
	})
	if err != nil {
		return "", err
	}

	voteID, err := stepper.Do(ctx, s.steps, StepPublishVote, func(ctx context.Context) (string, error) {
		if !params.Choice.Valid() {
			return "", domainerrors.ErrInvalidVoteChoice
		}
		if err := s.deps.Ballots.SetElectionID(ctx, electionID); err != nil {
			return "", err
		}
		return s.deps.Ballots.SubmitVote(ctx, entities.Ballot{
			Choices: []int{params.Choice.ExternalIndex()},
		})
	})
	if err != nil {
		return "", err
	}

	logger.Info("gasless vote published",
		"event", "gasless_vote_published",
		"module", "governance/gasless-voting",
		"layer", "application",
		"proposal_id", params.ProposalID,
		"election_id", electionID,
		"vote_id", voteID,
	)
	return voteID, nil
}
