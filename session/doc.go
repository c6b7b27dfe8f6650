// Package session houses concrete implementations of core.SessionStore.
//
// A session is one chat conversation. The store keeps the event transcript of
// every turn so front-ends can show history; agents never read it back, each
// turn starts from the user's message alone.
package session
