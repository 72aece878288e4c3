/*
Package ports defines the driven ports (interfaces) for the triage engine.

These interfaces decouple the decision engine from external implementations, allowing
the same questionnaires to be served from embedded data, YAML files or a Loam vault,
and sessions to be kept in memory or in Redis.

# Key Interfaces

  - ModuleLoader: Responsible for loading question graphs (e.g., from files, Loam or Memory).
  - SessionStore: Responsible for persisting and loading triage sessions.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - OutcomeLedger: Records the outcome of every finished session for later audit.
*/
package ports
