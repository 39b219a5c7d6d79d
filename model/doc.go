// Package model defines the normalized boundary between the engine and
// chat-completion providers: request/response structures, the streaming
// chunk shape, and the Provider interface implemented by vendor adapters
// (see the openai and anthropic subpackages). A scripted MockProvider is
// included for tests and examples.
package model
