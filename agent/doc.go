// Package agent contains the agent implementations used by deepresearch:
//
//  1. ModelAgent: a model backed agent with a fixed instruction and an
//     ordered, possibly empty, tool list. Role agents and the manager are
//     both ModelAgents.
//  2. SequentialAgent: a fixed pipeline that feeds each stage's output into
//     the next stage.
//
// Agents are immutable after construction and safe to share between
// concurrent sessions. Each exposes Run (event streaming under a runner) and
// Invoke (synchronous text in, text out).
package agent
