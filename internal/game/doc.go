// Package game implements the core round lifecycle for a party card game
// played by humans and LLM-driven bots.
//
// The main type is Game, a plain document that holds everything about one
// game: players, decks, rounds and configuration. The package mutates a Game
// in place and never talks to storage or the network itself; callers load a
// snapshot, apply one of the operations here, and persist the result. All
// precondition checks run against the snapshot being mutated, so re-applying
// an operation to a freshly loaded snapshot re-validates it.
//
// # Round lifecycle
//
// A round moves submission -> judging -> complete. Every submission, whether
// it comes from a human, a bot or the timeout sweep, funnels through
// SubmitCard so the hand replenishment and phase transition rules apply
// identically. SelectWinner closes the round and hands off to the lifecycle
// logic, which either ends the game or starts the next round.
//
// # Deterministic testing
//
// Operations that need randomness take a *rand.Rand, and operations that
// need the current time take it as an argument. Tests pass fixed seeds and
// fixed times; the server wires in a quartz clock.
package game
