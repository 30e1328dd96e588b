// Package gemini implements the generation.Generator interface using
// Google's Gemini API. Calls are retried with exponential backoff and
// jitter; responses are requested as JSON and parsed into generated cards.
package gemini
