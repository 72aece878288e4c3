/*
Package triage is a deterministic decision engine for medical self-triage questionnaires.

A questionnaire is a module: a directed graph of questions where each answer may carry a
severity level (A most urgent, D least). The engine walks the graph, keeps the highest
severity seen, and routes the finished session to an outcome: emergency call, priority
callback or scheduled consultation.

# Concept

The engine only computes transitions. Every call takes a session and returns a new one,
so the caller ("Host") decides where sessions live and how questions are shown. The same
engine backs the terminal questionnaire, the HTTP API and the MCP tool server.

# Key Features

  - Severity lattice: answers combine by maximum, never by sum.
  - Critical stops: a top-severity answer ends the session immediately.
  - Conditional branches: the first matching condition over patient data wins.
  - Progress: a worst-case estimate of the remaining questions, safe on cyclic graphs.
  - Built-in modules: adults, pediatrics, women's health and mental health.

# Usage

Build a module with the dsl package, or load YAML, JSON or a loam markdown directory.

	engine, err := triage.New("") // built-in modules
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s, _ := engine.StartModule(ctx, domain.NewSession("s1"), "adults", "")
	for !s.Terminal() {
		node, _ := engine.Current(ctx, s)
		answer := ask(node) // your UI
		s, err = engine.Submit(ctx, s, answer, domain.SeverityNone)
		if err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println(s.Outcome())

For stored sessions with locking and an outcome ledger, use the session package.
*/
package triage
