// Package aimodel selects and configures the language model backend.
//
// A [Config] is a validated, immutable description of which backend to talk
// to and with which generation parameters. It is built directly with [New]
// or read from environment variables with [FromEnvironment]. [GetOrCreate]
// turns a Config into a ready-to-use [Model].
//
// Recognised environment variables:
//
//	MODEL_TYPE         openai | litellm (default openai)
//	OPENAI_API_KEY     required when MODEL_TYPE=openai
//	OPENAI_BASE_URL    optional
//	OPENAI_MODEL       optional (default gpt-4.1)
//	LITELLM_API_KEY    required when MODEL_TYPE=litellm
//	LITELLM_BASE_URL   optional
//	LITELLM_MODEL      optional (default gpt-4.1)
//	MODEL_MAX_TOKEN    optional integer (default 1000)
//	MODEL_TEMPERATURE  optional float in [0, 1] (default 0.7)
//
// Every failure is an [*InvalidConfigurationError]; errors.Is(err,
// [ErrInvalidConfiguration]) reports true for all of them.
package aimodel
