// Package gen classifies the methods of repository interfaces and
// generates their bodies as delegations to a persistence session.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	Go interfaces annotated with //repox:repository
//	        ↓
//	   load.Interface (compiler/load)
//	        ↓
//	   Repository + Method descriptors (NewRepository)
//	        ↓
//	   Classify: rule table, first match wins
//	        ↓
//	   GeneratedMethod bodies (Op / Expr trees) + Diagnostics
//	        ↓
//	   Emitter (compiler/gen/session) → Go source
//
// # Categories
//
// Each method falls into exactly one category, tried in this order:
//
//   - Passthrough: returns repox.Session; the body returns the session.
//   - Query: carries a //repox:query directive; binds the parameters to
//     the named query and reduces its results to the declared shape.
//   - Finder, Persist, Merge, Remove, Flush, Save: recognized by name
//     (find/get, persist, merge, delete/remove, flush, save, with the
//     first letter in any case). All but flush accept the AndFlush suffix,
//     which flushes the session on every exit path.
//
// Methods matching no rule, or whose signature the category cannot
// serve, are reported as Diagnostics. A diagnostic never stops the
// generation of the other methods.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - MethodError: a method-level diagnostic of a DiagnosticKind
//   - InterfaceError: a failure abandoning a whole interface
//   - ConfigError: configuration errors
//   - GenerationError: emission and write errors
//
// Each matches its sentinel with errors.Is:
//
//	if errors.Is(err, gen.ErrParamCountMismatch) {
//	    // ...
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithWorkers(4),
//	    gen.WithFeatures(gen.FeatureReflectConfig),
//	    gen.WithLogger(logger),
//	)
//
// # Code Organization
//
//   - type.go: Repository and Method descriptors
//   - shape.go: result shape analysis
//   - classify.go: categories and the rule table
//   - bridge.go: bodies of name-recognized methods
//   - query.go: bodies of query methods
//   - body.go: the Op and Expr trees of generated bodies
//   - generate.go: per-interface generation
//   - writer.go: Emitter interface, rendering and the Files set
//   - feature.go: feature flags
//   - option.go: Config and functional options
//   - errors.go: structured error types
package gen
