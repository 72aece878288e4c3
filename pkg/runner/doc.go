/*
Package runner implements the interactive questionnaire loop.

It is the bridge between a session.Manager and a person answering questions.
The runner loads the stored session, shows the current question through a
pluggable IOHandler, parses the reply against the question type and submits
it, until the session ends or the user quits.

# Key Components

  - Runner: drives one session to a terminal status.
  - IOHandler: decouples how questions are shown and answers read.
  - TextHandler: numbered options and prompts for terminals.
  - JSONHandler: one JSON object per line for scripted clients.

# Usage

	r := runner.NewRunner(manager,
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	s, err := r.Run(ctx, sessionID)
*/
package runner
