// Package sync publishes content items to the configured remote targets.
//
// # Core Interfaces
//
//   - Manager: runs one publish or delete attempt for an item (domain logic)
//   - GitRemote: the repository operations the manager needs
//   - Syndicator: the article API operations the manager needs
//
// The scheduler subpackage decides when attempts run and records their
// outcome in the job store; the coordinator subpackage runs recovery and
// periodic maintenance. This package performs no retries and holds no locks.
//
// # Publishing Strategies
//
//   - disabled: nothing is published, runs report OutcomeSkipped
//   - git: the document and its assets are written in one commit
//   - syndication: the document is created or updated as an article
//   - dual: git first, then syndication for items that opted in. A failed
//     syndication after a successful commit reports OutcomePartial.
//
// # Result Types
//
//   - Result: the outcome of a run (commit, article, outcome)
//   - DeleteResult: the paths removed from the repository
//   - Error: a failure classified by Kind. Kinds config, auth and validation
//     are fatal; transient and rate_limit may succeed on a later attempt.
package sync
