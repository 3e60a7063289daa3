package memory

import (
	"context"
	"errors"
	"testing"

	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
)

func TestAccountLifecycle(t *testing.T) {
	backend := NewBackend()
	ctx := context.Background()

	if _, err := backend.FetchAccountInfo(ctx); !errors.Is(err, domainerrors.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound before provisioning, got %v", err)
	}

	created, err := backend.CreateAccount(ctx)
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	if created.Address == "" {
		t.Fatal("expected a generated account address")
	}

	fetched, err := backend.FetchAccountInfo(ctx)
	if err != nil {
		t.Fatalf("fetch after create failed: %v", err)
	}
	if fetched.Address != created.Address {
		t.Fatalf("expected stable account address, got %q and %q", created.Address, fetched.Address)
	}
}

func TestFaucetGrantsFixedAmount(t *testing.T) {
	backend := NewBackend()
	backend.SeedAccount(entities.Account{Address: "0xorg", Balance: 10})
	backend.SetFaucetGrant(15)

	account, err := backend.CollectFaucetTokens(context.Background())
	if err != nil {
		t.Fatalf("faucet call failed: %v", err)
	}
	if account.Balance != 25 {
		t.Fatalf("expected balance 25 after grant, got %d", account.Balance)
	}
}

func TestTokenSyncsAfterConfiguredPolls(t *testing.T) {
	backend := NewBackend()
	backend.SetSyncAfter(3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		token, err := backend.GetToken(ctx, "0xtoken")
		if err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}
		if want := i == 3; token.Synced != want {
			t.Fatalf("poll %d: expected synced=%v, got %v", i, want, token.Synced)
		}
	}
	if got := backend.TokenPolls("0xtoken"); got != 3 {
		t.Fatalf("expected 3 recorded polls, got %d", got)
	}
}

func TestSubmitVoteRequiresBoundElectionAndIsIdempotent(t *testing.T) {
	backend := NewBackend()
	ctx := context.Background()
	ballot := entities.Ballot{Choices: []int{1}}

	if _, err := backend.SubmitVote(ctx, ballot); !errors.Is(err, domainerrors.ErrNoElectionBound) {
		t.Fatalf("expected ErrNoElectionBound, got %v", err)
	}

	electionID, err := backend.CreateElection(ctx, entities.ElectionSpec{Title: "t"})
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if err := backend.SetElectionID(ctx, electionID); err != nil {
		t.Fatalf("bind election failed: %v", err)
	}

	first, err := backend.SubmitVote(ctx, ballot)
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	second, err := backend.SubmitVote(ctx, ballot)
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected idempotent vote ids, got %q and %q", first, second)
	}

	voted, err := backend.HasAlreadyVoted(ctx, electionID)
	if err != nil || !voted {
		t.Fatalf("expected recorded vote, got voted=%v err=%v", voted, err)
	}
}

func TestSubmitVoteRejectsOutOfRangeChoice(t *testing.T) {
	backend := NewBackend()
	ctx := context.Background()

	electionID, err := backend.CreateElection(ctx, entities.ElectionSpec{Title: "t"})
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if err := backend.SetElectionID(ctx, electionID); err != nil {
		t.Fatalf("bind election failed: %v", err)
	}

	if _, err := backend.SubmitVote(ctx, entities.Ballot{Choices: []int{3}}); !errors.Is(err, domainerrors.ErrInvalidVoteChoice) {
		t.Fatalf("expected ErrInvalidVoteChoice for ordinal 3, got %v", err)
	}
}

func TestProposalIndexRoundTrip(t *testing.T) {
	backend := NewBackend()
	ctx := context.Background()

	if _, err := backend.GetProposal(ctx, "missing", "dao", "0xdao"); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}

	proposal := entities.Proposal{ProposalID: "prop-1", ElectionID: "election-1"}
	if err := backend.SaveProposal(ctx, proposal); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := backend.GetProposal(ctx, "prop-1", "dao", "0xdao")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ElectionID != "election-1" {
		t.Fatalf("expected stored election id, got %q", stored.ElectionID)
	}
}

func TestMultisigMembership(t *testing.T) {
	backend := NewBackend()
	backend.SetMultisigMember("0xPlugin", "0xMember", true)

	ok, err := backend.IsMultisigMember(context.Background(), "0xplugin", "0xmember")
	if err != nil {
		t.Fatalf("membership check failed: %v", err)
	}
	if !ok {
		t.Fatal("expected case-insensitive membership match")
	}

	ok, err = backend.IsMultisigMember(context.Background(), "0xplugin", "0xother")
	if err != nil || ok {
		t.Fatalf("expected non-member to be rejected, got ok=%v err=%v", ok, err)
	}
}
