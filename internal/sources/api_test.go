package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warroom/warroom-bot/internal/models"
)

func newAPIServer(t *testing.T, routes map[string]http.HandlerFunc) *APIClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"error":"route not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewAPIClient(server.URL, "token")
}

func TestAPIClient_Channels(t *testing.T) {
	client := newAPIServer(t, map[string]http.HandlerFunc{
		"GET /api/elege/channels": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"success":true,"data":[{"id":"c1","name":"Rádio Capital","platform":"radio","active":true}]}`))
		},
		"POST /api/elege/channels": func(w http.ResponseWriter, r *http.Request) {
			var input ChannelInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
			assert.Equal(t, "TV Local", input.Name)
			w.Write([]byte(`{"success":true,"data":{"id":"c2","name":"TV Local","platform":"tv"}}`))
		},
		"DELETE /api/elege/channels/c2": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		},
		"POST /api/elege/activations/act-1/channels": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "c1", body["channel_id"])
			w.Write([]byte(`{"success":true}`))
		},
		"DELETE /api/elege/activations/act-1/channels/c1": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error":"channel is not linked"}`))
		},
	})
	ctx := context.Background()

	channels, err := client.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "Rádio Capital", channels[0].Name)

	created, err := client.CreateChannel(ctx, ChannelInput{Name: "TV Local", Platform: "tv"})
	require.NoError(t, err)
	assert.Equal(t, "c2", created.ID)

	_, err = client.CreateChannel(ctx, ChannelInput{Name: "Sem plataforma"})
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	assert.NoError(t, client.DeleteChannel(ctx, "c2"))
	assert.NoError(t, client.LinkChannel(ctx, "act-1", "c1"))

	err = client.UnlinkChannel(ctx, "act-1", "c1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, "channel is not linked", apiErr.Message)
}

func TestAPIClient_ErrorStatus(t *testing.T) {
	client := newAPIServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/activations/act-1/ai-analysis": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`<html>bad gateway</html>`))
		},
	})

	_, err := client.GenerateAIAnalysis(context.Background(), "act-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "invalid response body", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "POST /api/v1/activations/act-1/ai-analysis")
}

func TestAPIClient_AIAnalysisAndServices(t *testing.T) {
	client := newAPIServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/activations/act-1/ai-analysis": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"data":{"summary":"Cenário estável","highlights":["debate"]}}`))
		},
		"GET /api/admin/services/status": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"data":[{"name":"collector","status":"running","healthy":true}]}`))
		},
		"POST /api/admin/services/collector/restart": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		},
	})
	ctx := context.Background()

	analysis, err := client.GenerateAIAnalysis(ctx, "act-1")
	require.NoError(t, err)
	assert.Equal(t, "act-1", analysis.ActivationID)
	assert.Equal(t, "Cenário estável", analysis.Summary)

	statuses, err := client.ServiceStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Healthy)

	assert.NoError(t, client.ControlService(ctx, "collector", "restart"))
	assert.Error(t, client.ControlService(ctx, "collector", "explode"))
}

func TestAPIClient_PublicDashboard(t *testing.T) {
	client := newAPIServer(t, map[string]http.HandlerFunc{
		"POST /api/public/dashboard/tok/verify": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":"senha inválida"}`))
				return
			}
			w.Write([]byte(`{"success":true}`))
		},
		"GET /api/public/dashboard/tok/data": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"data":{"activation_id":"act-1","activation_name":"Eleições",
				"kpis":{"total_mentions":3,"global_threat_level":"BAIXO"},
				"top_risk_items":[{"id":"9","risk_score":"77"}]}}`))
		},
	})
	ctx := context.Background()

	err := client.VerifyPublicDashboard(ctx, "tok", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "senha inválida", apiErr.Message)
	require.NoError(t, client.VerifyPublicDashboard(ctx, "tok", "secret"))

	summary, err := client.PublicDashboardData(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Eleições", summary.ActivationName)
	assert.Equal(t, 3, summary.KPIs.TotalMentions)
	assert.Equal(t, models.GlobalLow, summary.KPIs.GlobalThreatLevel)
	require.Len(t, summary.TopRiskItems, 1)
	assert.Equal(t, 77, summary.TopRiskItems[0].RiskScore)
}
