// Package auth provides the credential and session-authorization core of the
// employee records backend: JWT issuance and verification, credential
// derivation rules, bun-backed account and employee repositories, and the
// account lifecycle workflows that sit on top of them.
//
// Tokens:
//   - TokenCodec signs HS256 session tokens carrying the subject, role and
//     linked employee id. Decode reports malformed, expired and bad-signature
//     tokens as distinct errors so callers can log the cause while still
//     answering 401 to the client.
//
// Credentials:
//   - Usernames derive from the email local-part, default passwords from the
//     username and birth day, and security keys from the username and birth
//     year. Security keys are never stored; they are recomputed from the
//     employee record when a reset is requested.
//
// Lifecycle:
//   - AccountLifecycle handles login, account creation, the idempotent admin
//     bootstrap, security-key resets, administrative resets and the cascade
//     delete of an employee and its account. Notifications are best-effort:
//     a delivery failure is logged and never rolls back a credential change.
package auth
