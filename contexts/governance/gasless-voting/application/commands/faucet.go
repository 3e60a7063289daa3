package commands

import (
	"context"
	"log/slog"

	application "daoboard/contexts/governance/gasless-voting/application"
	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"
)

// FaucetCollector tops up the voting account until a computed election cost
// is covered.
type FaucetCollector struct {
	Accounts ports.AccountService
	Logger   *slog.Logger
}

// Collect requests faucet disbursements until the balance reaches cost and
// returns the final balance. No request is issued when the balance already
// covers the cost. The loop has no attempt cap, it assumes the faucet's
// bounded allotment eventually covers any computed cost; a disbursement that
// does not raise the balance fails with ErrFaucetStalled instead of spinning.
func (c FaucetCollector) Collect(ctx context.Context, cost uint64, account entities.Account) (uint64, error) {
	logger := application.ResolveLogger(c.Logger)
	balance := account.Balance
	if balance >= cost {
		return balance, nil
	}

	logger.Info("collecting faucet tokens",
		"event", "gasless_faucet_collect_started",
		"module", "governance/gasless-voting",
		"layer", "application",
		"cost", cost,
		"balance", balance,
	)
	for balance < cost {
		if err := ctx.Err(); err != nil {
			return balance, err
		}
		updated, err := c.Accounts.CollectFaucetTokens(ctx)
		if err != nil {
			return balance, err
		}
		if updated.Balance <= balance {
			return balance, domainerrors.ErrFaucetStalled
		}
		balance = updated.Balance
	}
	logger.Info("faucet collection completed",
		"event", "gasless_faucet_collect_completed",
		"module", "governance/gasless-voting",
		"layer", "application",
		"cost", cost,
		"balance", balance,
	)
	return balance, nil
}
