package ports

import (
	"context"
	"time"

	"daoboard/contexts/governance/gasless-voting/domain/entities"
)

// AccountService manages the voting-backend account that pays election costs.
type AccountService interface {
	// FetchAccountInfo fails with domain ErrAccountNotFound when the account
	// was never provisioned.
	FetchAccountInfo(ctx context.Context) (entities.Account, error)
	CreateAccount(ctx context.Context) (entities.Account, error)
	// CollectFaucetTokens requests one faucet disbursement and returns the
	// updated account.
	CollectFaucetTokens(ctx context.Context) (entities.Account, error)
}

// CensusService is the external indexer building voter-eligibility snapshots.
type CensusService interface {
	GetToken(ctx context.Context, address string) (entities.CensusToken, error)
	CreateCensus(ctx context.Context, strategy uint64) (entities.Census, error)
}

// ElectionService creates off-chain-tallied elections.
type ElectionService interface {
	CalculateElectionCost(ctx context.Context, spec entities.ElectionSpec) (uint64, error)
	CreateElection(ctx context.Context, spec entities.ElectionSpec) (string, error)
}

// BallotService submits and inspects votes. SetElectionID binds the target
// election for subsequent SubmitVote calls, mirroring the stateful client the
// voting backend ships.
type BallotService interface {
	SetElectionID(ctx context.Context, electionID string) error
	SubmitVote(ctx context.Context, ballot entities.Ballot) (string, error)
	HasAlreadyVoted(ctx context.Context, electionID string) (bool, error)
}

// ProposalIndex resolves indexed gasless proposals, including the external
// election id bound to a proposal.
type ProposalIndex interface {
	GetProposal(ctx context.Context, proposalID string, daoDomain string, daoAddress string) (entities.Proposal, error)
	SaveProposal(ctx context.Context, proposal entities.Proposal) error
}

// OnchainRegistrar records a created proposal on the ledger. It is supplied
// by the caller of the proposal saga and never retried internally.
type OnchainRegistrar interface {
	// RegisterProposal receives the election id produced by the saga, or an
	// empty id when a fully completed saga only resubmits the registration.
	RegisterProposal(ctx context.Context, electionID string) error
}

// RegistrarFunc adapts a plain function to OnchainRegistrar.
type RegistrarFunc func(ctx context.Context, electionID string) error

func (f RegistrarFunc) RegisterProposal(ctx context.Context, electionID string) error {
	return f(ctx, electionID)
}

// MultisigMembership answers whether an address belongs to the approval
// committee of a voting plugin.
type MultisigMembership interface {
	IsMultisigMember(ctx context.Context, pluginAddress string, member string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
