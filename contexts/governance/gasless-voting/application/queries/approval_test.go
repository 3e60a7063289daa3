package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"daoboard/contexts/governance/gasless-voting/domain/entities"
)

type membershipFake struct {
	members map[string]bool
	calls   int
	err     error
}

func (f *membershipFake) IsMultisigMember(ctx context.Context, pluginAddress string, member string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.members[member], nil
}

type voteStatusFake struct {
	voted bool
	err   error
	calls int
}

func (f *voteStatusFake) SetElectionID(ctx context.Context, electionID string) error {
	return nil
}

func (f *voteStatusFake) SubmitVote(ctx context.Context, ballot entities.Ballot) (string, error) {
	return "", errors.New("not used")
}

func (f *voteStatusFake) HasAlreadyVoted(ctx context.Context, electionID string) (bool, error) {
	f.calls++
	return f.voted, f.err
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func succeededProposal() entities.Proposal {
	return entities.Proposal{
		ProposalID:        "prop-1",
		PluginAddress:     "0xplugin",
		EndDate:           testNow.Add(-time.Hour),
		ExpirationDate:    testNow.Add(24 * time.Hour),
		Status:            entities.ProposalStatusSucceeded,
		Approvers:         []string{"0xAAA", "0xBBB"},
		MinTallyApprovals: 3,
	}
}

func TestDeriveInsideApprovalPeriod(t *testing.T) {
	state := Derive(succeededProposal(), testNow, "0xCCC")

	if !state.IsApprovalPeriod {
		t.Fatal("expected the approval period to be open")
	}
	if !state.CanBeApproved {
		t.Fatal("expected a succeeded proposal in period to be approvable")
	}
	if state.Approved {
		t.Fatal("expected a caller outside the approver list to be unapproved")
	}
	if state.IsApproved {
		t.Fatal("expected 2 of 3 approvals to be insufficient")
	}
	if !state.NextVoteWillApprove {
		t.Fatal("expected the third approval to reach the tally")
	}
	if state.CanBeExecuted {
		t.Fatal("expected an unapproved proposal to be unexecutable")
	}
	if state.NotBegan {
		t.Fatal("expected a proposal past its end date to have begun")
	}
}

func TestDeriveCallerAlreadyApprovedMatchesCaseInsensitively(t *testing.T) {
	state := Derive(succeededProposal(), testNow, "0xaaa")
	if !state.Approved {
		t.Fatal("expected case-insensitive approver matching")
	}
}

func TestDeriveOutsideApprovalPeriod(t *testing.T) {
	proposal := succeededProposal()

	before := Derive(proposal, proposal.EndDate.Add(-time.Minute), "0xCCC")
	if before.IsApprovalPeriod || before.CanBeApproved {
		t.Fatal("expected no approval before the voting end date")
	}
	if !before.NotBegan {
		t.Fatal("expected not-began before the end date")
	}

	after := Derive(proposal, proposal.ExpirationDate.Add(time.Minute), "0xCCC")
	if after.IsApprovalPeriod || after.CanBeApproved {
		t.Fatal("expected no approval after expiration")
	}
}

func TestDeriveTallyReachedAllowsExecution(t *testing.T) {
	proposal := succeededProposal()
	proposal.Approvers = []string{"0xAAA", "0xBBB", "0xCCC"}

	state := Derive(proposal, testNow, "0xDDD")
	if !state.IsApproved {
		t.Fatal("expected the tally to be reached")
	}
	if !state.CanBeExecuted {
		t.Fatal("expected an approved in-period proposal to be executable")
	}
	if state.NextVoteWillApprove {
		t.Fatal("expected no pending decisive vote once the tally is reached")
	}
}

func TestDeriveNonSucceededProposalCannotBeApproved(t *testing.T) {
	proposal := succeededProposal()
	proposal.Status = entities.ProposalStatusDefeated

	state := Derive(proposal, testNow, "0xCCC")
	if state.CanBeApproved {
		t.Fatal("expected a defeated proposal to be unapprovable")
	}
	if !state.IsApprovalPeriod {
		t.Fatal("expected the period flag to be independent of the status")
	}
}

func TestCanApproveQueriesMembershipForEligibleCaller(t *testing.T) {
	membership := &membershipFake{members: map[string]bool{"0xCCC": true}}
	uc := ApprovalUseCase{Membership: membership, Clock: fixedClock{now: testNow}}

	ok, err := uc.CanApprove(context.Background(), succeededProposal(), "0xCCC")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ok {
		t.Fatal("expected a committee member to be allowed to approve")
	}
	if membership.calls != 1 {
		t.Fatalf("expected a single membership query, got %d", membership.calls)
	}
}

func TestCanApproveShortCircuitsWithoutMembershipQuery(t *testing.T) {
	cases := []struct {
		name     string
		proposal entities.Proposal
		caller   string
	}{
		{"caller already approved", succeededProposal(), "0xAAA"},
		{
			"outside approval period",
			func() entities.Proposal {
				p := succeededProposal()
				p.ExpirationDate = testNow.Add(-time.Minute)
				return p
			}(),
			"0xCCC",
		},
		{
			"proposal not succeeded",
			func() entities.Proposal {
				p := succeededProposal()
				p.Status = entities.ProposalStatusDefeated
				return p
			}(),
			"0xCCC",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			membership := &membershipFake{members: map[string]bool{tc.caller: true}}
			uc := ApprovalUseCase{Membership: membership, Clock: fixedClock{now: testNow}}

			ok, err := uc.CanApprove(context.Background(), tc.proposal, tc.caller)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ok {
				t.Fatal("expected approval to be denied")
			}
			if membership.calls != 0 {
				t.Fatalf("expected no membership query, got %d", membership.calls)
			}
		})
	}
}

func TestHasAlreadyVotedTreatsFailuresAsNotVoted(t *testing.T) {
	ballots := &voteStatusFake{err: errors.New("backend unreachable")}
	uc := VoteStatusUseCase{Ballots: ballots}

	proposal := entities.Proposal{ProposalID: "prop-1", ElectionID: "election-1"}
	if uc.HasAlreadyVoted(context.Background(), proposal) {
		t.Fatal("expected a failed lookup to report not voted")
	}
}

func TestHasAlreadyVotedSkipsLookupWithoutElection(t *testing.T) {
	ballots := &voteStatusFake{voted: true}
	uc := VoteStatusUseCase{Ballots: ballots}

	proposal := entities.Proposal{ProposalID: "prop-1"}
	if uc.HasAlreadyVoted(context.Background(), proposal) {
		t.Fatal("expected an unlinked proposal to report not voted")
	}
	if ballots.calls != 0 {
		t.Fatalf("expected no backend lookup, got %d", ballots.calls)
	}
}

func TestHasAlreadyVotedReportsBackendAnswer(t *testing.T) {
	ballots := &voteStatusFake{voted: true}
	uc := VoteStatusUseCase{Ballots: ballots}

	proposal := entities.Proposal{ProposalID: "prop-1", ElectionID: "election-1"}
	if !uc.HasAlreadyVoted(context.Background(), proposal) {
		t.Fatal("expected the backend answer to be reported")
	}
}
