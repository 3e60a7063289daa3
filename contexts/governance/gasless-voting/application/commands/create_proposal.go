package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	application "daoboard/contexts/governance/gasless-voting/application"
	"daoboard/contexts/governance/gasless-voting/application/stepper"
	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"
	"daoboard/internal/platform/poll"
)

// ProposalStepID identifies one step of the gasless proposal saga.
type ProposalStepID string

const (
	StepRegisterAccount ProposalStepID = "register_account"
	StepCreateElection  ProposalStepID = "create_election"
	StepRegisterOnchain ProposalStepID = "register_onchain"
	StepProposalReady   ProposalStepID = "proposal_ready"
)

const (
	defaultCensusSyncAttempts = 5
	defaultCensusSyncDelay    = 6 * time.Second
)

// ProposalSteps returns the saga steps in execution order.
func ProposalSteps() []ProposalStepID {
	return []ProposalStepID{
		StepRegisterAccount,
		StepCreateElection,
		StepRegisterOnchain,
		StepProposalReady,
	}
}

// CreateProposalDeps are the collaborators of the proposal saga. Registrar is
// caller-supplied and its result is relayed verbatim.
type CreateProposalDeps struct {
	Accounts  ports.AccountService
	Census    ports.CensusService
	Elections ports.ElectionService
	Registrar ports.OnchainRegistrar
	Clock     ports.Clock

	// TokenAddress is the governance token whose holders form the census.
	// The saga refuses to start without it.
	TokenAddress string

	SyncAttempts int
	SyncDelay    time.Duration
	Sleep        poll.SleepFunc

	Logger *slog.Logger
}

// CreateProposalSaga drives gasless proposal creation as an ordered saga:
// provision the voting account, build census and election, register the
// proposal on chain, mark it ready. One saga value belongs to one user
// action; a failed run is re-entered by calling CreateProposal again.
type CreateProposalSaga struct {
	deps  CreateProposalDeps
	steps *stepper.Stepper[ProposalStepID]
	busy  atomic.Bool

	mu         sync.Mutex
	electionID string
}

func NewCreateProposalSaga(deps CreateProposalDeps) *CreateProposalSaga {
	if deps.SyncAttempts <= 0 {
		deps.SyncAttempts = defaultCensusSyncAttempts
	}
	if deps.SyncDelay <= 0 {
		deps.SyncDelay = defaultCensusSyncDelay
	}
	if deps.Sleep == nil {
		deps.Sleep = poll.Sleep
	}
	return &CreateProposalSaga{
		deps:  deps,
		steps: stepper.New(ProposalSteps()...),
	}
}

// Steps returns a snapshot of the per-step states in execution order.
func (s *CreateProposalSaga) Steps() []stepper.StepState[ProposalStepID] {
	return s.steps.States()
}

// GlobalState is the derived aggregate status of the saga.
func (s *CreateProposalSaga) GlobalState() stepper.Status {
	return s.steps.Global()
}

// ElectionID returns the election created by the last successful election
// step, empty until that step completed. Safe to call while the saga runs.
func (s *CreateProposalSaga) ElectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.electionID
}

func (s *CreateProposalSaga) setElectionID(electionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.electionID = electionID
}

// CreateProposal runs the saga. Steps that already succeeded in a previous
// invocation are skipped; a saga whose previous invocation failed is fully
// reset first. A saga that already completed only re-invokes the registrar,
// with no election id, to resubmit the on-chain transaction.
func (s *CreateProposalSaga) CreateProposal(
	ctx context.Context,
	metadata entities.ProposalMetadata,
	params entities.ProposalParams,
) error {
	if !s.busy.CompareAndSwap(false, true) {
		return domainerrors.ErrSagaBusy
	}
	defer s.busy.Store(false)

	logger := application.ResolveLogger(s.deps.Logger)
	logger.Info("gasless proposal creation started",
		"event", "gasless_proposal_create_started",
		"module", "governance/gasless-voting",
		"layer", "application",
		"global_state", string(s.steps.Global()),
	)

	switch s.steps.Global() {
	case stepper.StatusError:
		s.steps.Reset()
	case stepper.StatusSuccess:
		return s.deps.Registrar.RegisterProposal(ctx, "")
	}

	if strings.TrimSpace(s.deps.TokenAddress) == "" {
		return domainerrors.ErrTokenNotConfigured
	}

	account, err := stepper.Do(ctx, s.steps, StepRegisterAccount, s.registerAccount)
	if err != nil {
		return err
	}
	logger.Info("voting account ready",
		"event", "gasless_proposal_account_ready",
		"module", "governance/gasless-voting",
		"layer", "application",
		"account", account.Address,
	)

	electionID, err := stepper.Do(ctx, s.steps, StepCreateElection, func(ctx context.Context) (string, error) {
		census, err := s.createCensus(ctx)
		if err != nil {
			return "", err
		}
		return s.createElection(ctx, metadata, params, census)
	})
	if err != nil {
		return err
	}
	s.setElectionID(electionID)
	logger.Info("gasless election created",
		"event", "gasless_proposal_election_created",
		"module", "governance/gasless-voting",
		"layer", "application",
		"election_id", electionID,
	)

	if _, err := stepper.Do(ctx, s.steps, StepRegisterOnchain, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.deps.Registrar.RegisterProposal(ctx, electionID)
	}); err != nil {
		return err
	}

	s.steps.Set(StepProposalReady, stepper.StatusSuccess)
	logger.Info("gasless proposal ready",
		"event", "gasless_proposal_ready",
		"module", "governance/gasless-voting",
		"layer", "application",
		"election_id", electionID,
	)
	return nil
}

// registerAccount provisions the voting account idempotently: a missing
// account is created, an existing one is reused, any other fetch failure
// propagates unmodified.
func (s *CreateProposalSaga) registerAccount(ctx context.Context) (entities.Account, error) {
	account, err := s.deps.Accounts.FetchAccountInfo(ctx)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrAccountNotFound) {
			return entities.Account{}, err
		}
		account, err = s.deps.Accounts.CreateAccount(ctx)
		if err != nil {
			return entities.Account{}, err
		}
	}
	if account.Address == "" {
		return entities.Account{}, domainerrors.ErrAccountUnavailable
	}
	return account, nil
}

// createCensus waits for the census indexer to report the governance token as
// synced, then snapshots the holder set via the token's default strategy.
func (s *CreateProposalSaga) createCensus(ctx context.Context) (entities.Census, error) {
	token, err := poll.Wait(ctx, s.deps.SyncAttempts, s.deps.SyncDelay, s.deps.Sleep,
		func(ctx context.Context) (entities.CensusToken, bool, error) {
			token, err := s.deps.Census.GetToken(ctx, s.deps.TokenAddress)
			if err != nil {
				return entities.CensusToken{}, false, err
			}
			return token, token.Synced, nil
		})
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			return entities.Census{}, domainerrors.ErrCensusNotSynced
		}
		return entities.Census{}, err
	}

	census, err := s.deps.Census.CreateCensus(ctx, token.DefaultStrategy)
	if err != nil {
		return entities.Census{}, err
	}
	census.Token = token
	return census, nil
}

// createElection assembles the election spec, funds the cost through the
// faucet, and submits the election. The balance is re-read here because the
// account step may have been skipped on replay.
func (s *CreateProposalSaga) createElection(
	ctx context.Context,
	metadata entities.ProposalMetadata,
	params entities.ProposalParams,
	census entities.Census,
) (string, error) {
	spec := entities.ElectionFromProposal(metadata, params, census, s.now())

	cost, err := s.deps.Elections.CalculateElectionCost(ctx, spec)
	if err != nil {
		return "", err
	}
	account, err := s.deps.Accounts.FetchAccountInfo(ctx)
	if err != nil {
		return "", err
	}
	collector := FaucetCollector{Accounts: s.deps.Accounts, Logger: s.deps.Logger}
	if _, err := collector.Collect(ctx, cost, account); err != nil {
		return "", err
	}

	return s.deps.Elections.CreateElection(ctx, spec)
}

func (s *CreateProposalSaga) now() time.Time {
	if s.deps.Clock != nil {
		return s.deps.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
