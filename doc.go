// Package members implements the account lifecycle core of a savings and
// financial-literacy member program: registration, email confirmation,
// admin invites, password reset, email change, phone verification, and
// per-member progress tracking (curriculum modules and savings goals).
//
// Lifecycle stages:
//   - Accounts carry a Stage bitmask persisted via Bun. Each bit records an
//     independent completed milestone (email confirmed, primary info
//     submitted, phone confirmed, profile completed, modules completed,
//     balance tracked). Bits are only ever set, never cleared; milestones can
//     complete out of order.
//   - Every transition is a command handler (command_*.go) invoked with an
//     explicit account identity. Handlers run inside a repository transaction
//     so a failed transition leaves the account untouched.
//
// Tokens:
//   - TokenCodec mints and verifies purpose-bound signed tokens (confirm,
//     reset, change_email). Verification collapses tampered, wrong-purpose,
//     and expired tokens into a single failure so callers never leak which
//     check tripped.
//
// Collaborators:
//   - Mailer, SMSSender, and UploadSigner are external delivery and storage
//     services. Dispatch is best-effort: delivery failures are logged and
//     never fail the transition that triggered them.
package members
