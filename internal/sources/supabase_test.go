package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warroom/warroom-bot/internal/models"
)

func newSupabaseServer(t *testing.T, handler http.HandlerFunc) *SupabaseClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSupabaseClient(server.URL+"/", "anon-key")
}

func TestSupabaseClient_IsEnabled(t *testing.T) {
	assert.True(t, NewSupabaseClient("https://project.supabase.co", "key").IsEnabled())
	assert.False(t, NewSupabaseClient("https://project.supabase.co", "").IsEnabled())
	assert.False(t, NewSupabaseClient("", "key").IsEnabled())
	assert.Equal(t, "supabase", NewSupabaseClient("", "").GetName())
}

func TestSupabaseClient_ListFeedItems(t *testing.T) {
	client := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/feed_items", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "eq.act-1", q.Get("activation_id"))
		assert.Equal(t, "(status.is.null,status.neq.archived)", q.Get("or"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, "200", q.Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"1","title":"Debate","source_name":"G1","sentiment":"NEGATIVO","risk_score":"85.4",
			 "keywords":["debate",7,null],"created_at":"2026-10-18T12:00:00.123456+00:00",
			 "classification_metadata":{"detected_entities":"Candidato X","author":{"handle":"@perfil","followers":"1200"}}},
			{"id":"2","sentiment":42,"keywords":"crise","risk_score":140,"classification_metadata":"oops"},
			{"id":"3","status":"archived"},
			"not an object"
		]`))
	})

	items, err := client.ListFeedItems(context.Background(), "act-1", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, models.SentimentNegative, first.Sentiment.Normalize())
	assert.Equal(t, 85, first.RiskScore)
	assert.Equal(t, []string{"debate"}, first.Keywords)
	assert.Equal(t, []string{"Candidato X"}, first.Classification.DetectedEntities)
	require.NotNil(t, first.Classification.Author)
	assert.Equal(t, "@perfil", first.Classification.Author.Handle)
	require.NotNil(t, first.Classification.Author.Followers)
	assert.Equal(t, 1200, *first.Classification.Author.Followers)
	assert.Equal(t, 2026, first.CreatedAt.Year())

	second := items[1]
	assert.Equal(t, models.SentimentNeutral, second.Sentiment.Normalize())
	assert.Equal(t, []string{"crise"}, second.Keywords)
	assert.Equal(t, 100, second.RiskScore)
	assert.Nil(t, second.Classification.Author)
	assert.True(t, second.CreatedAt.IsZero())
}

func TestSupabaseClient_GetActivation(t *testing.T) {
	client := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.missing" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"id":"act-1","name":"Eleições","keywords":["a","b","c"],"status":"active"}]`))
	})

	activation, err := client.GetActivation(context.Background(), "act-1")
	require.NoError(t, err)
	assert.Equal(t, "Eleições", activation.Name)
	assert.Equal(t, []string{"a", "b", "c"}, activation.Keywords)

	_, err = client.GetActivation(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSupabaseClient_ErrorStatus(t *testing.T) {
	client := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"JWT expired"}`))
	})

	_, err := client.ListCrises(context.Background(), "act-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSupabaseClient_SaveActivationValidates(t *testing.T) {
	called := false
	client := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		w.Write([]byte(`[{"id":"act-1","name":"Eleições","keywords":["a","b","c"]}]`))
	})

	_, err := client.SaveActivation(context.Background(), models.Activation{ID: "act-1", Name: "Eleições", Keywords: []string{"a", "b"}})
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "keywords", validationErr.Field)
	assert.False(t, called, "invalid activations are never sent")

	saved, err := client.SaveActivation(context.Background(), models.Activation{ID: "act-1", Name: "Eleições", Keywords: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "act-1", saved.ID)
}
