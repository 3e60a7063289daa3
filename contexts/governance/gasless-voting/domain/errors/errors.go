package errors

import "errors"

var (
	ErrAccountNotFound    = errors.New("voting account not found")
	ErrAccountUnavailable = errors.New("voting account could not be provisioned")
	ErrTokenNotConfigured = errors.New("governance token is not configured")
	ErrCensusNotSynced    = errors.New("census token is not synced yet, try again later")
	ErrNoLinkedElection   = errors.New("proposal has no linked election")
	ErrNoElectionBound    = errors.New("no election is bound for vote submission")
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrInvalidProposal    = errors.New("proposal request is missing required fields")
	ErrProposalConflict   = errors.New("proposal index conflict")
	ErrFaucetStalled      = errors.New("faucet disbursement did not increase the balance")
	ErrSagaBusy           = errors.New("saga invocation already in flight")
	ErrSagaNotFound       = errors.New("saga not found")
	ErrInvalidVoteChoice  = errors.New("invalid vote choice")
)
