package queries

import (
	"context"
	"log/slog"
	"time"

	application "daoboard/contexts/governance/gasless-voting/application"
	"daoboard/contexts/governance/gasless-voting/domain/entities"
	"daoboard/contexts/governance/gasless-voting/ports"
)

// Derive computes committee-approval eligibility from proposal fields and the
// wall clock only. No I/O.
func Derive(proposal entities.Proposal, now time.Time, caller string) entities.ApprovalState {
	isApprovalPeriod := now.After(proposal.EndDate) && now.Before(proposal.ExpirationDate)
	canBeApproved := isApprovalPeriod && proposal.Status == entities.ProposalStatusSucceeded
	approved := proposal.HasApprover(caller)
	isApproved := len(proposal.Approvers) >= proposal.MinTallyApprovals

	return entities.ApprovalState{
		IsApprovalPeriod:    isApprovalPeriod,
		CanBeApproved:       canBeApproved,
		Approved:            approved,
		IsApproved:          isApproved,
		CanBeExecuted:       isApproved && canBeApproved,
		NextVoteWillApprove: len(proposal.Approvers)+1 == proposal.MinTallyApprovals,
		Executed:            proposal.Executed,
		NotBegan:            proposal.EndDate.After(now),
	}
}

// ApprovalUseCase exposes approval-state reads to the dashboard.
type ApprovalUseCase struct {
	Membership ports.MultisigMembership
	Clock      ports.Clock
	Logger     *slog.Logger
}

// State derives the approval state for the caller at the current time.
func (uc ApprovalUseCase) State(proposal entities.Proposal, caller string) entities.ApprovalState {
	return Derive(proposal, uc.now(), caller)
}

// CanApprove reports whether the caller may approve the proposal right now.
// When the caller already approved, or the proposal is outside its approval
// period, or it cannot be approved at all, the answer is false without
// querying the membership service.
func (uc ApprovalUseCase) CanApprove(
	ctx context.Context,
	proposal entities.Proposal,
	caller string,
) (bool, error) {
	state := Derive(proposal, uc.now(), caller)
	if state.Approved || !state.IsApprovalPeriod || !state.CanBeApproved {
		return false, nil
	}
	return uc.Membership.IsMultisigMember(ctx, proposal.PluginAddress, caller)
}

func (uc ApprovalUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// VoteStatusUseCase answers the "has this account already voted" guard that
// gates whether the vote saga is offered at all.
type VoteStatusUseCase struct {
	Ballots ports.BallotService
	Logger  *slog.Logger
}

// HasAlreadyVoted is side-effect free and has no retry logic: any failure, or
// a proposal without a linked election, is reported as "not yet voted" so the
// dashboard stays usable when the voting backend is unreachable.
func (uc VoteStatusUseCase) HasAlreadyVoted(ctx context.Context, proposal entities.Proposal) bool {
	if proposal.ElectionID == "" {
		return false
	}
	voted, err := uc.Ballots.HasAlreadyVoted(ctx, proposal.ElectionID)
	if err != nil {
		application.ResolveLogger(uc.Logger).Warn("vote status lookup failed",
			"event", "gasless_vote_status_lookup_failed",
			"module", "governance/gasless-voting",
			"layer", "application",
			"proposal_id", proposal.ProposalID,
			"election_id", proposal.ElectionID,
			"error", err.Error(),
		)
		return false
	}
	return voted
}
