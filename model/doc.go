// Package model defines the provider agnostic abstractions for talking to a
// remote language model.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Normalize tool definitions and tool call parts across vendors
//   - Classify provider failures under ErrRemoteCall so callers can tell a
//     transport or API failure apart from a local one
//   - Facilitate lightweight stubbing for tests (MockModel, GenerateFunc)
//
// Providers (model/openai, model/anthropic) implement Model so agents and
// flows remain decoupled from vendor SDKs.
package model
