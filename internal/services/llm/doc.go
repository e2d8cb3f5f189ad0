// Package llm provides an OpenAI-compatible chat client used as an
// alternative release name extractor.
//
// The feed probe reduces every item to {title, episode, revision} with the
// regex catalog in internal/parser. When experimental_llm is enabled, names
// the catalog cannot read are sent to the model with ReleaseExtractionPrompt
// and the JSON answer is decoded into an Extraction.
//
// # Configuration
//
// NewFromConfig reads api_key, base_url, model and timeout_seconds from the
// experimental_llm section and routes requests through the configured proxy.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, empty content and network
// timeouts with exponential backoff. Retry-After is honoured up to the max
// delay. Context cancellation aborts retries immediately.
package llm
