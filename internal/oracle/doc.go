// Package oracle turns "pick one of these options" decisions into calls to
// a text-generation provider. The contract is deliberately narrow: build a
// numbered-list prompt, send it to the configured provider and model, and
// read a leading integer back. Three providers speak two wire protocols:
// groq and openai share the OpenAI chat-completions format at different
// base URLs, anthropic uses its messages API.
//
// Single attempts are exposed through Client.Choose; Adapter layers the
// bounded retry policy on top and satisfies game.Picker. Every retry is a
// fresh call rather than a resend, since game state may have moved under
// the actor between attempts.
package oracle
