// Package openrouter provides a resilient client for the OpenRouter HTTP API.
//
// Every outbound call carries a bearer token, fixed attribution headers
// (HTTP-Referer, X-Title), and a fixed request timeout. Failures are
// classified at the moment they occur:
//
//   - HTTP 429: rate limited, retryable
//   - HTTP 5xx: server error, retryable
//   - no HTTP response: network error, retryable
//   - HTTP 401/403: auth error, terminal
//   - other HTTP 4xx: invalid request, terminal
//   - anything else: unknown, terminal
//
// # Retry Behaviour
//
// Do retries retryable failures up to three times (four attempts total).
// The delay before retry k is base(1s) * 2^(k-1) * uniform(0.5, 1.0) --
// exponential backoff with half-range jitter so concurrent callers do not
// retry in lockstep. Terminal classifications short-circuit the loop
// immediately; exhausting the bound surfaces the last retryable error.
//
// ListModels and GetModel perform zero internal retries. They feed the
// catalog directory and the model resolver, which own the decision of
// whether a failed fetch is worth repeating.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.ChatCompletion: POST /chat/completions through the retry loop.
// Client.ListModels: GET /models, single attempt.
// Client.GetModel: GET /models/{id}, single attempt.
package openrouter
