/*
Package session manages stored triage sessions.

A Manager loads a session, applies one engine transition and saves the result
while holding a per-session lock. Locks are reference counted so idle sessions
cost nothing; a DistributedLocker extends the lock across replicas. When a
transition ends a session, the outcome is appended to an optional ledger.
*/
package session
