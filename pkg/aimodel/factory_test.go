package aimodel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/kata/pkg/aimodel"
	"github.com/germanamz/kata/pkg/chats/chat"
	"github.com/germanamz/kata/pkg/chats/message"
	"github.com/germanamz/kata/pkg/chats/role"
	"github.com/germanamz/kata/pkg/modeladapter"
	"github.com/germanamz/kata/pkg/providers/litellm"
	"github.com/germanamz/kata/pkg/providers/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_FromEnvironment(t *testing.T) {
	m, err := aimodel.GetOrCreateWith(nil, aimodel.MapLookup(openAIEnv()))
	require.NoError(t, err)

	_, ok := m.(*openai.Adapter)
	assert.True(t, ok)

	s := m.Settings()
	assert.Equal(t, "gpt-test", s.ModelID)
	assert.Equal(t, modeladapter.Params{MaxTokens: 123, Temperature: 0.5}, s.Params)
	assert.Equal(t, openai.DefaultBaseURL, s.BaseURL)
}

func TestGetOrCreate_ProcessEnvironment(t *testing.T) {
	for k, v := range openAIEnv() {
		t.Setenv(k, v)
	}

	m, err := aimodel.GetOrCreate(nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", m.Settings().ModelID)
}

func TestGetOrCreate_PropagatesLoaderError(t *testing.T) {
	env := openAIEnv()
	env["MODEL_TYPE"] = "invalid"

	m, err := aimodel.GetOrCreateWith(nil, aimodel.MapLookup(env))
	assert.Nil(t, m)
	ice := requireInvalid(t, err, aimodel.ReasonUnsupportedKind)
	assert.Equal(t, "invalid", ice.Value)
}

func TestGetOrCreate_LiteLLM(t *testing.T) {
	s := validSettings()
	s.Kind = aimodel.LiteLLM
	s.Temperature = 0.2
	cfg, err := aimodel.New(s)
	require.NoError(t, err)

	m, err := aimodel.GetOrCreate(&cfg)
	require.NoError(t, err)

	_, ok := m.(*litellm.Adapter)
	assert.True(t, ok)
	assert.Equal(t, modeladapter.Settings{
		ModelID: "gpt-test",
		BaseURL: litellm.DefaultBaseURL,
		Params:  modeladapter.Params{MaxTokens: 123, Temperature: 0.2},
	}, m.Settings())
}

func TestGetOrCreate_BaseURLPassedOnlyWhenSet(t *testing.T) {
	s := validSettings()
	s.BaseURL = "https://gateway.example.com/v1"
	cfg, err := aimodel.New(s)
	require.NoError(t, err)

	m, err := aimodel.GetOrCreate(&cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example.com/v1", m.Settings().BaseURL)
}

func TestGetOrCreate_FreshHandleEachCall(t *testing.T) {
	cfg, err := aimodel.New(validSettings())
	require.NoError(t, err)

	a, err := aimodel.GetOrCreate(&cfg)
	require.NoError(t, err)
	b, err := aimodel.GetOrCreate(&cfg)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, a.Settings(), b.Settings())
}

func TestGetOrCreate_ZeroConfigRejected(t *testing.T) {
	var cfg aimodel.Config

	_, err := aimodel.GetOrCreate(&cfg)
	requireInvalid(t, err, aimodel.ReasonUnsupportedKind)
}

func TestGetOrCreate_RequestsCarryExactSettings(t *testing.T) {
	for _, kind := range aimodel.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				assert.Equal(t, "kata-test", r.Header.Get("X-Client"))

				var req map[string]any
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "gpt-test", req["model"])
				assert.InDelta(t, 123, req["max_tokens"], 0)
				assert.InDelta(t, 0, req["temperature"], 0)

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"choices": []map[string]any{
						{"message": map[string]any{"role": "assistant", "content": "pong"}},
					},
					"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 1},
				})
			}))
			defer srv.Close()

			s := validSettings()
			s.Kind = kind
			s.BaseURL = srv.URL
			s.Temperature = 0
			cfg, err := aimodel.New(s)
			require.NoError(t, err)

			m, err := aimodel.GetOrCreate(&cfg,
				aimodel.WithHTTPClient(srv.Client()),
				aimodel.WithHeaders(map[string]string{"X-Client": "kata-test"}),
			)
			require.NoError(t, err)

			reply, err := m.Complete(context.Background(), chat.New(message.NewText("u", role.User, "ping")), nil)
			require.NoError(t, err)
			assert.Equal(t, "pong", reply.TextContent())
			assert.Equal(t, 4, m.UsageTracker().Total().Total())
		})
	}
}

func TestGetOrCreate_BaseURLFromEnvironmentUsedAsGiven(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "pong"}},
			},
		})
	}))
	defer srv.Close()

	env := openAIEnv()
	env["OPENAI_BASE_URL"] = srv.URL + "/v1beta/openai/"

	m, err := aimodel.GetOrCreateWith(nil, aimodel.MapLookup(env), aimodel.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = m.Complete(context.Background(), chat.New(message.NewText("u", role.User, "ping")), nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/openai/chat/completions", gotPath)
}
