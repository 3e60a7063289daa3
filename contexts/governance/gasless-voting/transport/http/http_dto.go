package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	SagaID      string    `json:"saga_id,omitempty"`
	ProposalID  string    `json:"proposal_id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date,omitempty"`
	EndDate     time.Time `json:"end_date"`

	PluginAddress     string    `json:"plugin_address,omitempty"`
	ExpirationDate    time.Time `json:"expiration_date,omitempty"`
	MinTallyApprovals int       `json:"min_tally_approvals,omitempty"`
}

type StepState struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type SagaStateResponse struct {
	SagaID      string      `json:"saga_id"`
	GlobalState string      `json:"global_state"`
	Steps       []StepState `json:"steps"`
	ElectionID  string      `json:"election_id,omitempty"`
}

type VoteRequest struct {
	ProposalID string `json:"proposal_id"`
	Choice     int    `json:"choice"`
}

type VoteResponse struct {
	ProposalID  string      `json:"proposal_id"`
	VoteID      string      `json:"vote_id,omitempty"`
	GlobalState string      `json:"global_state"`
	Steps       []StepState `json:"steps"`
}

type ApprovalStateResponse struct {
	ProposalID          string `json:"proposal_id"`
	IsApprovalPeriod    bool   `json:"is_approval_period"`
	CanBeApproved       bool   `json:"can_be_approved"`
	Approved            bool   `json:"approved"`
	IsApproved          bool   `json:"is_approved"`
	CanBeExecuted       bool   `json:"can_be_executed"`
	NextVoteWillApprove bool   `json:"next_vote_will_approve"`
	Executed            bool   `json:"executed"`
	NotBegan            bool   `json:"not_began"`
	CanApprove          bool   `json:"can_approve"`
}

type HasVotedResponse struct {
	ProposalID string `json:"proposal_id"`
	HasVoted   bool   `json:"has_voted"`
}
