package gaslessvoting

import (
	"log/slog"
	"time"

	httpadapter "daoboard/contexts/governance/gasless-voting/adapters/http"
	"daoboard/contexts/governance/gasless-voting/adapters/memory"
	"daoboard/contexts/governance/gasless-voting/application/commands"
	"daoboard/contexts/governance/gasless-voting/application/queries"
	"daoboard/contexts/governance/gasless-voting/ports"
	"daoboard/internal/platform/poll"
)

type Module struct {
	Handler *httpadapter.Handler
	Backend *memory.Backend
}

type Dependencies struct {
	Accounts   ports.AccountService
	Census     ports.CensusService
	Elections  ports.ElectionService
	Ballots    ports.BallotService
	Proposals  ports.ProposalIndex
	Membership ports.MultisigMembership
	IDGen      ports.IDGenerator
	Clock      ports.Clock

	// TokenAddress is the governance token whose holders vote. DAODomain and
	// DAOAddress scope proposal lookups to the served organization.
	TokenAddress string
	DAODomain    string
	DAOAddress   string

	CensusSyncAttempts int
	CensusSyncDelay    time.Duration
	Sleep              poll.SleepFunc

	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	newProposalSaga := func(registrar ports.OnchainRegistrar) *commands.CreateProposalSaga {
		return commands.NewCreateProposalSaga(commands.CreateProposalDeps{
			Accounts:     deps.Accounts,
			Census:       deps.Census,
			Elections:    deps.Elections,
			Registrar:    registrar,
			Clock:        deps.Clock,
			TokenAddress: deps.TokenAddress,
			SyncAttempts: deps.CensusSyncAttempts,
			SyncDelay:    deps.CensusSyncDelay,
			Sleep:        deps.Sleep,
			Logger:       deps.Logger,
		})
	}
	newVoteSaga := func() *commands.VoteSaga {
		return commands.NewVoteSaga(commands.VoteDeps{
			Proposals:  deps.Proposals,
			Ballots:    deps.Ballots,
			DAODomain:  deps.DAODomain,
			DAOAddress: deps.DAOAddress,
			Logger:     deps.Logger,
		})
	}
	return Module{
		Handler: &httpadapter.Handler{
			NewProposalSaga: newProposalSaga,
			NewVoteSaga:     newVoteSaga,
			Approvals: queries.ApprovalUseCase{
				Membership: deps.Membership,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			VoteStatus: queries.VoteStatusUseCase{
				Ballots: deps.Ballots,
				Logger:  deps.Logger,
			},
			Proposals:  deps.Proposals,
			IDGen:      deps.IDGen,
			DAODomain:  deps.DAODomain,
			DAOAddress: deps.DAOAddress,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-process backend fake.
// Used by tests and by local development without external services. The
// sleep is a no-op so census-sync polling does not slow local runs.
func NewInMemoryModule(tokenAddress string, daoDomain string, daoAddress string, logger *slog.Logger) Module {
	backend := memory.NewBackend()
	module := NewModule(Dependencies{
		Accounts:           backend,
		Census:             backend,
		Elections:          backend,
		Ballots:            backend,
		Proposals:          backend,
		Membership:         backend,
		IDGen:              backend,
		TokenAddress:       tokenAddress,
		DAODomain:          daoDomain,
		DAOAddress:         daoAddress,
		CensusSyncAttempts: 5,
		CensusSyncDelay:    time.Millisecond,
		Sleep:              poll.NopSleep,
		Logger:             logger,
	})
	module.Backend = backend
	return module
}
