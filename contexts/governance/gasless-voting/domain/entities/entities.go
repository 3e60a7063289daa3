package entities

import (
	"strings"
	"time"
)

// Account is the voting-backend account that pays election costs.
type Account struct {
	Address string
	Balance uint64
}

// CensusToken is the census service's view of a governance token. Synced
// reports whether the token's holder snapshot is ready to be queried.
type CensusToken struct {
	Address         string
	DefaultStrategy uint64
	Synced          bool
}

// Census is a voter-eligibility snapshot referenced by its merkle root.
type Census struct {
	MerkleRoot string
	URI        string
	Size       uint64
	Weight     string
	Anonymous  bool
	Token      CensusToken
}

// Choice is a single selectable answer inside an election question. Value is
// the zero-based ordinal the voting backend expects.
type Choice struct {
	Title string
	Value int
}

// Question is the single yes/no/abstain question attached to an election.
type Question struct {
	Title       string
	Description string
	Choices     []Choice
}

// ElectionSpec is the specification submitted to the voting backend when an
// off-chain-tallied election is created.
type ElectionSpec struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Census      Census
	Questions   []Question
}

// ProposalMetadata carries the caller-facing proposal texts.
type ProposalMetadata struct {
	Title       string
	Summary     string
	Description string
}

// ProposalParams carries the proposal schedule. A zero StartDate means the
// backend picks the earliest possible start; a zero EndDate falls back to the
// submission time.
type ProposalParams struct {
	StartDate time.Time
	EndDate   time.Time
}

// VoteChoice is the caller-facing, one-based vote value. The voting backend
// counts choices from zero, so submission uses ExternalIndex.
type VoteChoice int

const (
	VoteChoiceAbstain VoteChoice = iota + 1
	VoteChoiceYes
	VoteChoiceNo
)

// ballotChoiceLabels fixes the declaration order of the selectable answers.
// The position in this list is the ordinal submitted to the voting backend.
var ballotChoiceLabels = []string{"Abstain", "Yes", "No"}

// BallotChoices returns the closed, ordered answer list attached to every
// gasless election question.
func BallotChoices() []Choice {
	choices := make([]Choice, 0, len(ballotChoiceLabels))
	for i, label := range ballotChoiceLabels {
		choices = append(choices, Choice{Title: label, Value: i})
	}
	return choices
}

func (c VoteChoice) Valid() bool {
	return c >= VoteChoiceAbstain && c <= VoteChoiceNo
}

// ExternalIndex converts the one-based caller value to the zero-based
// representation the voting backend expects.
func (c VoteChoice) ExternalIndex() int {
	return int(c) - 1
}

// Ballot is the payload submitted to the voting backend for one vote.
type Ballot struct {
	Choices []int
}

// VoteParams is the caller input for the gasless vote saga.
type VoteParams struct {
	ProposalID string
	Choice     VoteChoice
}

type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusActive    ProposalStatus = "active"
	ProposalStatusSucceeded ProposalStatus = "succeeded"
	ProposalStatusExecuted  ProposalStatus = "executed"
	ProposalStatusDefeated  ProposalStatus = "defeated"
)

// Proposal is the read-only view of an indexed gasless proposal, consumed by
// the vote saga (election id lookup) and the approval-state derivation.
type Proposal struct {
	ProposalID        string
	DAODomain         string
	DAOAddress        string
	PluginAddress     string
	ElectionID        string
	EndDate           time.Time
	ExpirationDate    time.Time
	Status            ProposalStatus
	Approvers         []string
	MinTallyApprovals int
	Executed          bool
}

// HasApprover reports whether the address already approved the proposal.
// Addresses are compared case-insensitively, hex checksum casing varies.
func (p Proposal) HasApprover(address string) bool {
	for _, approver := range p.Approvers {
		if strings.EqualFold(strings.TrimSpace(approver), strings.TrimSpace(address)) {
			return true
		}
	}
	return false
}

// ApprovalState is the committee-approval eligibility derived from a proposal
// and the wall clock. See queries.Derive for the rules.
type ApprovalState struct {
	IsApprovalPeriod    bool
	CanBeApproved       bool
	Approved            bool
	IsApproved          bool
	CanBeExecuted       bool
	NextVoteWillApprove bool
	Executed            bool
	NotBegan            bool
}

// ElectionFromProposal assembles the election specification for a proposal:
// texts from the metadata, schedule from the params, the census snapshot, and
// the fixed single question with the closed choice list.
func ElectionFromProposal(
	metadata ProposalMetadata,
	params ProposalParams,
	census Census,
	now time.Time,
) ElectionSpec {
	endDate := params.EndDate
	if endDate.IsZero() {
		endDate = now
	}
	return ElectionSpec{
		Title:       metadata.Title,
		Description: metadata.Description,
		StartDate:   params.StartDate,
		EndDate:     endDate,
		Census:      census,
		Questions: []Question{
			{
				Title:   metadata.Summary,
				Choices: BallotChoices(),
			},
		},
	}
}
