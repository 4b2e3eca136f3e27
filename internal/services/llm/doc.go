// Package llm provides the chat completion client shared by the stages that
// draft summaries and dialogue. All supported backends expose the
// OpenAI-style chat completion endpoint, so one client with per-backend
// base URLs covers groq, openai, openrouter, and a local ollama server.
package llm
