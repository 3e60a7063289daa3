// Package memory fakes the external voting backend (account, census,
// election and ballot services) plus the proposal index, deterministically
// and in process. Used by tests and by the in-memory module wiring for local
// development.
package memory

import (
	"context"
	"strings"
	"sync"

	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"

	"github.com/google/uuid"
)

// Backend simulates the external voting infrastructure. The zero-value
// behaviors are tuned so a full proposal saga passes: the token syncs on the
// first poll, the faucet grants a fixed amount per call, and election cost is
// a flat fee.
type Backend struct {
	mu sync.Mutex

	account      *entities.Account
	faucetGrant  uint64
	electionCost uint64

	syncAfter  int
	tokenPolls map[string]int

	elections     map[string]entities.ElectionSpec
	boundElection string
	votes         map[string]string

	proposals map[string]entities.Proposal
	members   map[string]bool
}

func NewBackend() *Backend {
	return &Backend{
		faucetGrant:  25,
		electionCost: 40,
		syncAfter:    1,
		tokenPolls:   make(map[string]int),
		elections:    make(map[string]entities.ElectionSpec),
		votes:        make(map[string]string),
		proposals:    make(map[string]entities.Proposal),
		members:      make(map[string]bool),
	}
}

// SeedAccount installs an already-provisioned account.
func (b *Backend) SeedAccount(account entities.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.account = &account
}

// SetFaucetGrant fixes the balance increase per faucet call.
func (b *Backend) SetFaucetGrant(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faucetGrant = amount
}

// SetElectionCost fixes the cost returned for every election spec.
func (b *Backend) SetElectionCost(cost uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.electionCost = cost
}

// SetSyncAfter makes GetToken report synced starting with the n-th poll.
func (b *Backend) SetSyncAfter(polls int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncAfter = polls
}

// SetProposal seeds an indexed proposal.
func (b *Backend) SetProposal(proposal entities.Proposal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.proposals[strings.TrimSpace(proposal.ProposalID)] = proposal
}

// SetMultisigMember marks an address as an approval-committee member.
func (b *Backend) SetMultisigMember(pluginAddress string, member string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members[membershipKey(pluginAddress, member)] = ok
}

// TokenPolls reports how many times a token's sync status was checked.
func (b *Backend) TokenPolls(address string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenPolls[strings.TrimSpace(address)]
}

// Election returns a created election spec by id.
func (b *Backend) Election(electionID string) (entities.ElectionSpec, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	spec, ok := b.elections[electionID]
	return spec, ok
}

// VoteID returns the recorded vote id for an election, if any.
func (b *Backend) VoteID(electionID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	voteID, ok := b.votes[electionID]
	return voteID, ok
}

func (b *Backend) FetchAccountInfo(_ context.Context) (entities.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.account == nil {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return *b.account, nil
}

func (b *Backend) CreateAccount(_ context.Context) (entities.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.account == nil {
		b.account = &entities.Account{Address: uuid.NewString(), Balance: 0}
	}
	return *b.account, nil
}

func (b *Backend) CollectFaucetTokens(_ context.Context) (entities.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.account == nil {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	b.account.Balance += b.faucetGrant
	return *b.account, nil
}

func (b *Backend) GetToken(_ context.Context, address string) (entities.CensusToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	address = strings.TrimSpace(address)
	b.tokenPolls[address]++
	return entities.CensusToken{
		Address:         address,
		DefaultStrategy: 1,
		Synced:          b.tokenPolls[address] >= b.syncAfter,
	}, nil
}

func (b *Backend) CreateCensus(_ context.Context, _ uint64) (entities.Census, error) {
	return entities.Census{
		MerkleRoot: uuid.NewString(),
		URI:        "ipfs://" + uuid.NewString(),
		Size:       100,
		Weight:     "100",
		Anonymous:  false,
	}, nil
}

func (b *Backend) CalculateElectionCost(_ context.Context, _ entities.ElectionSpec) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.electionCost, nil
}

func (b *Backend) CreateElection(_ context.Context, spec entities.ElectionSpec) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	electionID := uuid.NewString()
	b.elections[electionID] = spec
	return electionID, nil
}

func (b *Backend) SetElectionID(_ context.Context, electionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boundElection = electionID
	return nil
}

func (b *Backend) SubmitVote(_ context.Context, ballot entities.Ballot) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.boundElection == "" {
		return "", domainerrors.ErrNoElectionBound
	}
	for _, choice := range ballot.Choices {
		if choice < 0 || choice >= len(entities.BallotChoices()) {
			return "", domainerrors.ErrInvalidVoteChoice
		}
	}
	if voteID, ok := b.votes[b.boundElection]; ok {
		return voteID, nil
	}
	voteID := uuid.NewString()
	b.votes[b.boundElection] = voteID
	return voteID, nil
}

func (b *Backend) HasAlreadyVoted(_ context.Context, electionID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.votes[electionID]
	return ok, nil
}

func (b *Backend) GetProposal(_ context.Context, proposalID string, _ string, _ string) (entities.Proposal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	proposal, ok := b.proposals[strings.TrimSpace(proposalID)]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal, nil
}

func (b *Backend) SaveProposal(_ context.Context, proposal entities.Proposal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.proposals[strings.TrimSpace(proposal.ProposalID)] = proposal
	return nil
}

func (b *Backend) IsMultisigMember(_ context.Context, pluginAddress string, member string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.members[membershipKey(pluginAddress, member)], nil
}

func (b *Backend) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func membershipKey(pluginAddress string, member string) string {
	return strings.ToLower(strings.TrimSpace(pluginAddress)) + "|" + strings.ToLower(strings.TrimSpace(member))
}

var _ ports.AccountService = (*Backend)(nil)
var _ ports.CensusService = (*Backend)(nil)
var _ ports.ElectionService = (*Backend)(nil)
var _ ports.BallotService = (*Backend)(nil)
var _ ports.ProposalIndex = (*Backend)(nil)
var _ ports.MultisigMembership = (*Backend)(nil)
var _ ports.IDGenerator = (*Backend)(nil)
