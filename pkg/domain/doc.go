/*
Package domain contains the core models of the triage engine.

It defines the question graph, the severity lattice, the patient-data record
branch conditions read from, and the session snapshot the flow state machine
produces. The package is pure: no I/O, no logging, no persistence.

# Key Entities

  - Severity: ordered urgency levels A > B > C > D > none, combined by max.
  - Module and Node: a specialty questionnaire and its questions, options and edges.
  - Condition: a small interpreted predicate over PatientData, used by branches.
  - Value and PatientData: a tagged union and the key/value record built from it.
  - Session: the observable state of one traversal (current node, answers,
    severity, history, completion).
*/
package domain
