// Package account provides the account lifecycle used by the web front end:
// registration, email activation, credential login into a server side
// session and re-verification of the session token on later requests.
//
// Account lifecycle:
//   - Accounts start pending. Register stores the account with Active=false
//     and mails an activation link whose key is derived from the email, the
//     stored password digest and the server secret. Nothing about the key is
//     persisted; Activate recomputes it and compares.
//   - AccountStateMachine owns the only allowed transition, pending to
//     active. Activation never reverts.
//   - Pending accounts that try to log in get the activation link again and
//     an ErrNotActivated style error. They are never promoted implicitly.
//
// Credentials:
//   - CredentialHasher isolates the stored digest format. The default
//     MD5Hasher applies MD5 twice, which is the format existing records use.
//     Swap the hasher only together with a data migration.
//
// Sessions:
//   - Lifecycle operations take the inbound Session and return the outbound
//     one. Only the HTTP controller reads or writes the SessionStore, which
//     keeps sessions server side and hands out a signed session ID cookie.
//
// Activity sinks:
//   - ActivitySink receives lifecycle events (registration, activation,
//     login outcomes, notification failures). Sinks run best-effort, errors
//     are logged.
package account
