// Package core provides the foundational domain types and execution contexts
// shared by every deepresearch package:
//
//   - Agents and Invokers (units of model-backed work)
//   - Content and Parts (role-based text, tool calls and tool results)
//   - Events (immutable records emitted while an agent runs)
//   - Sessions (per-chat transcript containers)
//   - RunContext / ToolContext (scoped execution state for agents and tools)
//
// Implementation concerns (providers, persistence, front-ends) live in their
// own packages and depend on the small interfaces declared here.
package core
