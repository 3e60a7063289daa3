package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"daoboard/contexts/governance/gasless-voting/application/stepper"
	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"
	"daoboard/internal/platform/poll"
)

// votingBackendFake implements the account, census and election ports with
// per-call counters so saga replays can be asserted precisely.
type votingBackendFake struct {
	account     *entities.Account
	fetchErr    error
	faucetGrant uint64

	syncAfter  int
	tokenPolls int

	cost              uint64
	createdElections  int
	createElectionErr error

	fetchCalls  int
	createCalls int
	faucetCalls int
	censusCalls int
	costCalls   int
}

func newVotingBackendFake() *votingBackendFake {
	return &votingBackendFake{
		faucetGrant: 25,
		syncAfter:   1,
		cost:        40,
	}
}

func (f *votingBackendFake) FetchAccountInfo(ctx context.Context) (entities.Account, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return entities.Account{}, f.fetchErr
	}
	if f.account == nil {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return *f.account, nil
}

func (f *votingBackendFake) CreateAccount(ctx context.Context) (entities.Account, error) {
	f.createCalls++
	if f.account == nil {
		f.account = &entities.Account{Address: "0xorg", Balance: 0}
	}
	return *f.account, nil
}

func (f *votingBackendFake) CollectFaucetTokens(ctx context.Context) (entities.Account, error) {
	f.faucetCalls++
	f.account.Balance += f.faucetGrant
	return *f.account, nil
}

func (f *votingBackendFake) GetToken(ctx context.Context, address string) (entities.CensusToken, error) {
	f.tokenPolls++
	return entities.CensusToken{
		Address:         address,
		DefaultStrategy: 3,
		Synced:          f.tokenPolls >= f.syncAfter,
	}, nil
}

func (f *votingBackendFake) CreateCensus(ctx context.Context, strategy uint64) (entities.Census, error) {
	f.censusCalls++
	return entities.Census{
		MerkleRoot: "root",
		URI:        "ipfs://census",
		Size:       10,
		Weight:     "10",
	}, nil
}

func (f *votingBackendFake) CalculateElectionCost(ctx context.Context, spec entities.ElectionSpec) (uint64, error) {
	f.costCalls++
	return f.cost, nil
}

func (f *votingBackendFake) CreateElection(ctx context.Context, spec entities.ElectionSpec) (string, error) {
	if f.createElectionErr != nil {
		return "", f.createElectionErr
	}
	f.createdElections++
	return fmt.Sprintf("election-%d", f.createdElections), nil
}

type registrarFake struct {
	electionIDs []string
	err         error
	entered     chan struct{}
	block       chan struct{}
}

func (r *registrarFake) RegisterProposal(ctx context.Context, electionID string) error {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.electionIDs = append(r.electionIDs, electionID)
	return r.err
}

func newTestSaga(backend *votingBackendFake, registrar ports.OnchainRegistrar) *CreateProposalSaga {
	return NewCreateProposalSaga(CreateProposalDeps{
		Accounts:     backend,
		Census:       backend,
		Elections:    backend,
		Registrar:    registrar,
		TokenAddress: "0xtoken",
		SyncAttempts: 5,
		SyncDelay:    time.Millisecond,
		Sleep:        poll.NopSleep,
	})
}

func testProposalInput() (entities.ProposalMetadata, entities.ProposalParams) {
	return entities.ProposalMetadata{Title: "Fund the treasury", Summary: "short"},
		entities.ProposalParams{EndDate: time.Now().Add(48 * time.Hour)}
}

func stepStatus(t *testing.T, saga *CreateProposalSaga, id ProposalStepID) stepper.Status {
	t.Helper()
	for _, snapshot := range saga.Steps() {
		if snapshot.ID == id {
			return snapshot.State.Status
		}
	}
	t.Fatalf("step %q not found", id)
	return ""
}

func TestCreateProposalProvisionsMissingAccountAndCompletes(t *testing.T) {
	backend := newVotingBackendFake()
	registrar := &registrarFake{}
	saga := newTestSaga(backend, registrar)
	metadata, params := testProposalInput()

	if err := saga.CreateProposal(context.Background(), metadata, params); err != nil {
		t.Fatalf("expected saga success, got %v", err)
	}

	if backend.createCalls != 1 {
		t.Fatalf("expected missing account to be created once, got %d", backend.createCalls)
	}
	// Cost 40 from a zero balance with a 25 grant: two faucet calls.
	if backend.faucetCalls != 2 {
		t.Fatalf("expected 2 faucet calls, got %d", backend.faucetCalls)
	}
	if saga.ElectionID() != "election-1" {
		t.Fatalf("expected created election id, got %q", saga.ElectionID())
	}
	if len(registrar.electionIDs) != 1 || registrar.electionIDs[0] != "election-1" {
		t.Fatalf("expected a single on-chain registration with the election id, got %v", registrar.electionIDs)
	}
	if got := saga.GlobalState(); got != stepper.StatusSuccess {
		t.Fatalf("expected success global state, got %q", got)
	}
}

func TestCreateProposalReusesExistingAccount(t *testing.T) {
	backend := newVotingBackendFake()
	backend.account = &entities.Account{Address: "0xorg", Balance: 100}
	registrar := &registrarFake{}
	saga := newTestSaga(backend, registrar)
	metadata, params := testProposalInput()

	if err := saga.CreateProposal(context.Background(), metadata, params); err != nil {
		t.Fatalf("expected saga success, got %v", err)
	}
	if backend.createCalls != 0 {
		t.Fatalf("expected no account creation, got %d", backend.createCalls)
	}
	if backend.faucetCalls != 0 {
		t.Fatalf("expected no faucet calls with a funded account, got %d", backend.faucetCalls)
	}
}

func TestCompletedSagaOnlyResubmitsRegistration(t *testing.T) {
	backend := newVotingBackendFake()
	registrar := &registrarFake{}
	saga := newTestSaga(backend, registrar)
	metadata, params := testProposalInput()

	if err := saga.CreateProposal(context.Background(), metadata, params); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	costCalls := backend.costCalls
	fetchCalls := backend.fetchCalls

	if err := saga.CreateProposal(context.Background(), metadata, params); err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}

	if backend.costCalls != costCalls || backend.fetchCalls != fetchCalls {
		t.Fatal("expected no backend calls on resubmission")
	}
	if len(registrar.electionIDs) != 2 {
		t.Fatalf("expected a second registrar call, got %d", len(registrar.electionIDs))
	}
	// The resubmission passes no election id: the record is already indexed.
	if registrar.electionIDs[1] != "" {
		t.Fatalf("expected empty election id on resubmission, got %q", registrar.electionIDs[1])
	}
}

func TestCreateProposalRequiresConfiguredToken(t *testing.T) {
	backend := newVotingBackendFake()
	saga := NewCreateProposalSaga(CreateProposalDeps{
		Accounts:  backend,
		Census:    backend,
		Elections: backend,
		Registrar: &registrarFake{},
		Sleep:     poll.NopSleep,
	})
	metadata, params := testProposalInput()

	err := saga.CreateProposal(context.Background(), metadata, params)
	if !errors.Is(err, domainerrors.ErrTokenNotConfigured) {
		t.Fatalf("expected ErrTokenNotConfigured, got %v", err)
	}
	if backend.fetchCalls != 0 {
		t.Fatalf("expected no backend calls without a token, got %d", backend.fetchCalls)
	}
}

func TestCreateProposalFailsWhenCensusNeverSyncs(t *testing.T) {
	backend := newVotingBackendFake()
	backend.syncAfter = 100
	registrar := &registrarFake{}
	saga := newTestSaga(backend, registrar)
	metadata, params := testProposalInput()

	err := saga.CreateProposal(context.Background(), metadata, params)
	if !errors.Is(err, domainerrors.ErrCensusNotSynced) {
		t.Fatalf("expected ErrCensusNotSynced, got %v", err)
	}
	if backend.tokenPolls != 5 {
		t.Fatalf("expected 5 sync polls, got %d", backend.tokenPolls)
	}
	if len(registrar.electionIDs) != 0 {
		t.Fatal("expected no on-chain registration after census failure")
	}
	if got := stepStatus(t, saga, StepCreateElection); got != stepper.StatusError {
		t.Fatalf("expected election step error, got %q", got)
	}
	if got := saga.GlobalState(); got != stepper.StatusError {
		t.Fatalf("expected error global state, got %q", got)
	}

	// A failed saga is reset on re-entry: the account step runs again even
	// though it had succeeded.
	backend.syncAfter = 0
	fetchCalls := backend.fetchCalls
	if err := saga.CreateProposal(context.Background(), metadata, params); err != nil {
		t.Fatalf("expected rerun success, got %v", err)
	}
	if backend.fetchCalls <= fetchCalls {
		t.Fatal("expected account step to re-execute after reset")
	}
	if got := saga.GlobalState(); got != stepper.StatusSuccess {
		t.Fatalf("expected success after rerun, got %q", got)
	}
}

func TestRegistrarFailureIsRelayedAndRetryResetsSaga(t *testing.T) {
	backend := newVotingBackendFake()
	registrarErr := errors.New("wallet rejected transaction")
	registrar := &registrarFake{err: registrarErr}
	saga := newTestSaga(backend, registrar)
	metadata, params := testProposalInput()

	err := saga.CreateProposal(context.Background(), metadata, params)
	if !errors.Is(err, registrarErr) {
		t.Fatalf("expected registrar error to be relayed, got %v", err)
	}
	if got := stepStatus(t, saga, StepRegisterAccount); got != stepper.StatusSuccess {
		t.Fatalf("expected account step success, got %q", got)
	}
	if got := stepStatus(t, saga, StepRegisterOnchain); got != stepper.StatusError {
		t.Fatalf("expected on-chain step error, got %q", got)
	}

	// On retry the whole saga resets, so the election is created again and a
	// fresh election id reaches the registrar.
	registrar.err = nil
	if err := saga.CreateProposal(context.Background(), metadata, params); err != nil {
		t.Fatalf("expected retry success, got %v", err)
	}
	if backend.createdElections != 2 {
		t.Fatalf("expected a second election after reset, got %d", backend.createdElections)
	}
	if saga.ElectionID() != "election-2" {
		t.Fatalf("expected fresh election id, got %q", saga.ElectionID())
	}
}

func TestSagaSnapshotsAreSafeWhileRunning(t *testing.T) {
	backend := newVotingBackendFake()
	registrar := &registrarFake{
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	saga := newTestSaga(backend, registrar)
	metadata, params := testProposalInput()

	done := make(chan error, 1)
	go func() {
		done <- saga.CreateProposal(context.Background(), metadata, params)
	}()
	<-registrar.entered

	// Saga state is served over HTTP while the saga runs, so the snapshot
	// accessors race against step transitions; the race detector fails the
	// run if they are unsynchronized.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = saga.Steps()
				_ = saga.GlobalState()
				_ = saga.ElectionID()
			}
		}()
	}
	wg.Wait()

	if got := saga.GlobalState(); got != stepper.StatusActive {
		t.Fatalf("expected active global state mid-run, got %q", got)
	}
	if saga.ElectionID() != "election-1" {
		t.Fatalf("expected election id visible mid-run, got %q", saga.ElectionID())
	}

	close(registrar.block)
	if err := <-done; err != nil {
		t.Fatalf("expected saga success, got %v", err)
	}
}

func TestCreateProposalRejectsConcurrentInvocation(t *testing.T) {
	backend := newVotingBackendFake()
	backend.account = &entities.Account{Address: "0xorg", Balance: 100}
	registrar := &registrarFake{
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	saga := newTestSaga(backend, registrar)
	metadata, params := testProposalInput()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- saga.CreateProposal(context.Background(), metadata, params)
	}()

	// Wait until the first invocation parks inside the registrar, then the
	// second invocation must bounce.
	<-registrar.entered
	if err := saga.CreateProposal(context.Background(), metadata, params); !errors.Is(err, domainerrors.ErrSagaBusy) {
		t.Fatalf("expected ErrSagaBusy for the concurrent invocation, got %v", err)
	}

	close(registrar.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first invocation failed: %v", err)
	}
}
