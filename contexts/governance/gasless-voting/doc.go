// Package gaslessvoting implements gasless governance inside the governance
// context.
//
// The module orchestrates proposal creation and vote submission against an
// external off-chain voting backend as resumable multi-step sagas, derives
// committee-approval state for indexed proposals, and keeps business rules in
// application/domain layers with infrastructure isolated behind ports and
// adapters.
package gaslessvoting
