package commands

import (
	"context"
	"errors"
	"testing"

	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
)

type fakeFaucetAccounts struct {
	balance uint64
	grant   uint64
	calls   int
	err     error
}

func (f *fakeFaucetAccounts) FetchAccountInfo(ctx context.Context) (entities.Account, error) {
	return entities.Account{Address: "0xorg", Balance: f.balance}, nil
}

func (f *fakeFaucetAccounts) CreateAccount(ctx context.Context) (entities.Account, error) {
	return entities.Account{Address: "0xorg", Balance: f.balance}, nil
}

func (f *fakeFaucetAccounts) CollectFaucetTokens(ctx context.Context) (entities.Account, error) {
	f.calls++
	if f.err != nil {
		return entities.Account{}, f.err
	}
	f.balance += f.grant
	return entities.Account{Address: "0xorg", Balance: f.balance}, nil
}

func TestCollectSkipsFaucetWhenBalanceCoversCost(t *testing.T) {
	accounts := &fakeFaucetAccounts{balance: 50, grant: 10}
	collector := FaucetCollector{Accounts: accounts}

	balance, err := collector.Collect(context.Background(), 40, entities.Account{Balance: 50})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if balance != 50 {
		t.Fatalf("expected untouched balance 50, got %d", balance)
	}
	if accounts.calls != 0 {
		t.Fatalf("expected no faucet calls, got %d", accounts.calls)
	}
}

func TestCollectRequestsUntilCostIsCovered(t *testing.T) {
	accounts := &fakeFaucetAccounts{balance: 5, grant: 25}
	collector := FaucetCollector{Accounts: accounts}

	balance, err := collector.Collect(context.Background(), 70, entities.Account{Balance: 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// 5 -> 30 -> 55 -> 80: three disbursements to cover a cost of 70.
	if accounts.calls != 3 {
		t.Fatalf("expected 3 faucet calls, got %d", accounts.calls)
	}
	if balance != 80 {
		t.Fatalf("expected final balance 80, got %d", balance)
	}
}

func TestCollectFailsWhenBalanceDoesNotIncrease(t *testing.T) {
	accounts := &fakeFaucetAccounts{balance: 10, grant: 0}
	collector := FaucetCollector{Accounts: accounts}

	_, err := collector.Collect(context.Background(), 100, entities.Account{Balance: 10})
	if !errors.Is(err, domainerrors.ErrFaucetStalled) {
		t.Fatalf("expected ErrFaucetStalled, got %v", err)
	}
	if accounts.calls != 1 {
		t.Fatalf("expected a single faucet call before stalling, got %d", accounts.calls)
	}
}

func TestCollectPropagatesFaucetFailure(t *testing.T) {
	faucetErr := errors.New("faucet exhausted")
	accounts := &fakeFaucetAccounts{balance: 10, err: faucetErr}
	collector := FaucetCollector{Accounts: accounts}

	_, err := collector.Collect(context.Background(), 100, entities.Account{Balance: 10})
	if !errors.Is(err, faucetErr) {
		t.Fatalf("expected faucet error, got %v", err)
	}
}

func TestCollectStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	accounts := &fakeFaucetAccounts{balance: 10, grant: 5}
	collector := FaucetCollector{Accounts: accounts}

	_, err := collector.Collect(ctx, 100, entities.Account{Balance: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if accounts.calls != 0 {
		t.Fatalf("expected no faucet calls after cancellation, got %d", accounts.calls)
	}
}
