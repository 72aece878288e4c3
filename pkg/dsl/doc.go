/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing triage modules.

It allows developers to define question graphs using a type-safe, fluent builder pattern
instead of relying on external YAML files. This is particularly useful for unit testing
and for modules generated at runtime.

Example usage:

	b := dsl.New("screening").Title("Quick screening")

	b.Add("CHEST_PAIN").
		Boolean("Do you have chest pain right now?").
		Criticality(domain.SeverityA).
		CriticalStop().
		Go("AGE")

	b.Add("AGE").
		Numeric("How old are you?", 0, 120, "years").
		SaveTo("age").
		Branch("age >= 65", "SENIOR").
		Otherwise("SYMPTOMS")

	loader, err := b.Loader()
	// ... pass loader to triage.New(triage.WithLoader(loader))
*/
package dsl
