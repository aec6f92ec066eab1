package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/crop-risk-service/internal/adapter/http"
	"github.com/couchcryptid/crop-risk-service/internal/chat"
	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWeather struct {
	current domain.CurrentWeather
	points  []domain.ForecastPoint
	err     error
}

func (f *fakeWeather) CurrentWeather(_ context.Context, city string) (domain.CurrentWeather, error) {
	if f.err != nil {
		return domain.CurrentWeather{}, f.err
	}
	c := f.current
	c.City = city
	return c, nil
}

func (f *fakeWeather) Forecast(_ context.Context, city string) (domain.Forecast, error) {
	if f.err != nil {
		return domain.Forecast{}, f.err
	}
	return domain.Forecast{City: city, Points: f.points}, nil
}

type memStore struct {
	mu    sync.Mutex
	items map[string]domain.Assessment
	order []string
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]domain.Assessment)}
}

func (s *memStore) Save(_ context.Context, a domain.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.items[a.ID] = a
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (domain.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	return a, nil
}

func (s *memStore) ListRecent(_ context.Context, city string, limit int) ([]domain.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Assessment{}
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		a := s.items[s.order[i]]
		if city == "" || strings.EqualFold(a.City, city) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, history []chat.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, history[len(history)-1].Content)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

func rainyWeather() *fakeWeather {
	rain := 1.5
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	var points []domain.ForecastPoint
	for i := range 16 {
		points = append(points, domain.ForecastPoint{
			Time:         start.Add(time.Duration(i) * 3 * time.Hour),
			TemperatureC: 18,
			Humidity:     92,
			Condition:    "light rain",
			RainMM:       &rain,
		})
	}
	return &fakeWeather{
		current: domain.CurrentWeather{TemperatureC: 18, Humidity: 90, Description: "light rain", Main: "Rain"},
		points:  points,
	}
}

type testEnv struct {
	srv       *httpadapter.Server
	store     *memStore
	completer *fakeCompleter
	metrics   *observability.Metrics
}

type envOption func(*httpadapter.Dependencies)

func withoutWeather() envOption {
	return func(d *httpadapter.Dependencies) { d.Weather = nil }
}

func withWeather(w domain.WeatherProvider) envOption {
	return func(d *httpadapter.Dependencies) { d.Weather = w }
}

func withoutHistory() envOption {
	return func(d *httpadapter.Dependencies) { d.History = nil }
}

func withoutAssistant() envOption {
	return func(d *httpadapter.Dependencies) { d.Assistant = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     newMemStore(),
		completer: &fakeCompleter{reply: "**Apply** copper spray"},
		metrics:   observability.NewMetricsForTesting(),
	}
	profiles := domain.DefaultProfileStore()
	deps := httpadapter.Dependencies{
		Profiles:    profiles,
		Weather:     rainyWeather(),
		History:     env.store,
		Assistant:   chat.NewAssistant(env.completer, chat.NewSessionStore(time.Hour, nil), profiles, env.metrics, discardLogger()),
		Metrics:     env.metrics,
		DefaultCity: "Thane",
		Location:    time.UTC,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	deps.Assessor = domain.NewAssessor(profiles, deps.Weather, domain.AssessorConfig{DefaultCity: "Thane", Location: time.UTC}, discardLogger())

	api := httpadapter.NewAPI(deps, discardLogger())
	env.srv = httpadapter.NewServer(":0", &mockReadiness{}, api, discardLogger())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestAPI_Diseases(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/diseases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Count    int              `json:"count"`
		Diseases []map[string]any `json:"diseases"`
	}](t, rec)
	assert.Equal(t, domain.DefaultProfileStore().Len(), body.Count)
	assert.Len(t, body.Diseases, body.Count)

	rec = env.do(t, http.MethodGet, "/api/diseases/Pepper,_bell___Bacterial_spot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	one := decode[map[string]any](t, rec)
	assert.Equal(t, "Pepper bell", one["plant"])
	assert.Equal(t, "Bacterial spot", one["disease"])
	assert.Equal(t, false, one["is_healthy"])

	rec = env.do(t, http.MethodGet, "/api/diseases/Tomato___Purple_rot", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "Tomato___Purple_rot")
}

func TestAPI_Risk(t *testing.T) {
	t.Run("inline observation", func(t *testing.T) {
		env := newTestEnv(t, withoutWeather())
		rec := env.do(t, http.MethodPost, "/api/risk",
			`{"disease_class":"Tomato___Late_blight","weather":{"condition":"light rain","temperature":18,"humidity":90}}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[struct {
			Risk domain.RiskResult `json:"risk"`
			City string            `json:"city"`
		}](t, rec)
		assert.Equal(t, domain.RiskHigh, body.Risk.Level)
		assert.Equal(t, 5, body.Risk.Score)
		assert.Empty(t, body.City)
	})

	t.Run("live weather", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/risk", `{"disease_class":"Tomato___Late_blight","city":"Pune"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[map[string]any](t, rec)
		assert.Equal(t, "Pune", body["city"])
		assert.Equal(t, "high", body["risk"].(map[string]any)["risk"])
	})

	t.Run("missing humidity", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/risk",
			`{"disease_class":"Tomato___Late_blight","weather":{"condition":"rain","temperature":18}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "weather.humidity is required", errorMessage(t, rec))
	})

	t.Run("humidity out of range", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/risk",
			`{"disease_class":"Tomato___Late_blight","weather":{"temperature":18,"humidity":120}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "weather.humidity must satisfy lte=100", errorMessage(t, rec))
	})

	t.Run("unknown field", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/risk", `{"disease_class":"Tomato___Late_blight","crop":"tomato"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "invalid JSON")
	})

	t.Run("no provider and no observation", func(t *testing.T) {
		env := newTestEnv(t, withoutWeather())
		rec := env.do(t, http.MethodPost, "/api/risk", `{"disease_class":"Tomato___Late_blight"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		env := newTestEnv(t, withWeather(&fakeWeather{err: errors.New("city not found")}))
		rec := env.do(t, http.MethodPost, "/api/risk", `{"disease_class":"Tomato___Late_blight","city":"Atlantis"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "city not found")
	})
}

func TestAPI_Survival(t *testing.T) {
	t.Run("from live forecast", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/survival", `{"disease_class":"Tomato___Late_blight","days_ahead":2}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		report := decode[domain.SurvivalReport](t, rec)
		assert.Len(t, report.DailyRisks, 2)
		assert.Equal(t, "2024-06-10", report.DailyRisks[0].Date)
		assert.Equal(t, 2, report.HighRiskDays)
		assert.Equal(t, domain.OutlookConcerning, report.Outlook)
	})

	t.Run("inline days", func(t *testing.T) {
		env := newTestEnv(t, withoutWeather())
		rec := env.do(t, http.MethodPost, "/api/survival",
			`{"disease_class":"Tomato___healthy","days":[{"date":"2024-06-10","temp_avg":25,"humidity":50,"condition":"clear sky"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		report := decode[domain.SurvivalReport](t, rec)
		assert.Equal(t, domain.OutlookExcellent, report.Outlook)
		assert.Equal(t, []string{domain.RecMonitor}, report.Recommendations)
	})

	t.Run("omitted days ahead uses default window", func(t *testing.T) {
		env := newTestEnv(t, withoutWeather())
		rec := env.do(t, http.MethodPost, "/api/survival",
			`{"disease_class":"Tomato___Late_blight","days":[{"date":"2024-06-10","temp_avg":18,"humidity":92,"condition":"light rain"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		report := decode[domain.SurvivalReport](t, rec)
		assert.Len(t, report.DailyRisks, 1)
		assert.Equal(t, domain.OutlookConcerning, report.Outlook)
	})

	t.Run("zero days ahead projects nothing", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/survival", `{"disease_class":"Tomato___Late_blight","days_ahead":0}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		report := decode[domain.SurvivalReport](t, rec)
		assert.Empty(t, report.DailyRisks)
		assert.Equal(t, 0, report.SurvivalDays)
		assert.Equal(t, domain.OutlookStable, report.Outlook)
	})

	t.Run("days ahead out of range", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/survival", `{"disease_class":"Tomato___Late_blight","days_ahead":9}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "days_ahead must satisfy lte=5", errorMessage(t, rec))
	})
}

func TestAPI_Weather(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/weather?city=Nashik", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		City     string                 `json:"city"`
		Current  domain.CurrentWeather  `json:"current"`
		Forecast []domain.DailyForecast `json:"forecast"`
	}](t, rec)
	assert.Equal(t, "Nashik", body.City)
	assert.Equal(t, "Nashik", body.Current.City)
	require.Len(t, body.Forecast, 2)
	assert.Equal(t, 12.0, body.Forecast[0].TotalRainMM)

	disabled := newTestEnv(t, withoutWeather())
	rec = disabled.do(t, http.MethodGet, "/api/weather", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_AnalyzeAndHistory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/analyze",
		`{"disease_class":"Tomato___Late_blight","confidence":96.5,"detected_at":"2024-06-10T06:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assessment := decode[domain.Assessment](t, rec)
	assert.Equal(t, "Thane", assessment.City)
	assert.Equal(t, "Tomato", assessment.Plant)
	require.NotNil(t, assessment.Risk)
	assert.Equal(t, domain.RiskHigh, assessment.Risk.Level)

	rec = env.do(t, http.MethodGet, "/api/assessments/"+assessment.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, assessment.ID, decode[domain.Assessment](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/assessments?city=thane&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, list.Count)

	rec = env.do(t, http.MethodGet, "/api/assessments/asmt-missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/assessments?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/analyze", `{"confidence":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "disease_class is required", errorMessage(t, rec))
}

func TestAPI_AnalyzeWithoutHistory(t *testing.T) {
	env := newTestEnv(t, withoutHistory())

	rec := env.do(t, http.MethodPost, "/api/analyze", `{"disease_class":"Apple___Apple_scab"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/assessments", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_Chat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat", `{"message":"What should I spray?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reply := decode[chat.Reply](t, rec)
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "Apply copper spray", reply.Response)

	rec = env.do(t, http.MethodPost, "/api/chat", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/chat/clear", `{"session_id":"`+reply.SessionID+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/chat/clear", `{"session_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ChatWithAssessmentContext(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/analyze", `{"disease_class":"Potato___Late_blight","confidence":88}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assessment := decode[domain.Assessment](t, rec)

	rec = env.do(t, http.MethodPost, "/api/chat",
		`{"message":"Is it getting worse?","assessment_id":"`+assessment.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	prompt := env.completer.lastPrompt()
	assert.Contains(t, prompt, "=== CURRENT CONTEXT DATA ===")
	assert.Contains(t, prompt, "Plant: Potato, Disease: Late blight")
	assert.Contains(t, prompt, "Is it getting worse?")

	rec = env.do(t, http.MethodPost, "/api/chat", `{"message":"hi","assessment_id":"asmt-missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ChatCompletionFailure(t *testing.T) {
	env := newTestEnv(t)
	env.completer.err = errors.New("rate limited")

	rec := env.do(t, http.MethodPost, "/api/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "rate limited")
}

func TestAPI_Report(t *testing.T) {
	env := newTestEnv(t)
	env.completer.reply = "## Summary\nTreat now."

	rec := env.do(t, http.MethodPost, "/api/analyze", `{"disease_class":"Grape___Black_rot"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assessment := decode[domain.Assessment](t, rec)

	rec = env.do(t, http.MethodPost, "/api/report", `{"assessment_id":"`+assessment.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Equal(t, assessment.ID, body["assessment_id"])
	assert.Equal(t, "Summary\nTreat now.", body["report"])
	assert.Contains(t, env.completer.lastPrompt(), "Grape")

	rec = env.do(t, http.MethodPost, "/api/report", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_AssistantDisabled(t *testing.T) {
	env := newTestEnv(t, withoutAssistant())

	for _, path := range []string{"/api/chat", "/api/chat/clear", "/api/report"} {
		rec := env.do(t, http.MethodPost, path, `{"message":"hi","session_id":"s"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}
