package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/crop-risk-service/internal/chat"
	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// AssessmentStore persists and retrieves assessments.
type AssessmentStore interface {
	Save(ctx context.Context, a domain.Assessment) error
	Get(ctx context.Context, id string) (domain.Assessment, error)
	ListRecent(ctx context.Context, city string, limit int) ([]domain.Assessment, error)
}

// Dependencies wires the API to the service components. Weather, History and
// Assistant are optional; their endpoints answer 503 when unset.
type Dependencies struct {
	Profiles    *domain.ProfileStore
	Assessor    *domain.Assessor
	Weather     domain.WeatherProvider
	History     AssessmentStore
	Assistant   *chat.Assistant
	Metrics     *observability.Metrics
	DefaultCity string
	Location    *time.Location
}

// API serves the JSON endpoints under /api.
type API struct {
	deps     Dependencies
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPI creates an API.
func NewAPI(deps Dependencies, logger *slog.Logger) *API {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &API{deps: deps, validate: newValidator(), logger: logger}
}

// RegisterRoutes mounts the API endpoints onto r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/diseases", a.handleListDiseases)
	r.Get("/diseases/{id}", a.handleGetDisease)
	r.Post("/risk", a.handleRisk)
	r.Post("/survival", a.handleSurvival)
	r.Get("/weather", a.handleWeather)
	r.Post("/analyze", a.handleAnalyze)
	r.Get("/assessments", a.handleListAssessments)
	r.Get("/assessments/{id}", a.handleGetAssessment)
	r.Post("/chat", a.handleChat)
	r.Post("/chat/clear", a.handleChatClear)
	r.Post("/report", a.handleReport)
}

// --- request and response types ---

type diseaseView struct {
	domain.DiseaseProfile
	Plant   string `json:"plant"`
	Disease string `json:"disease"`
	Healthy bool   `json:"is_healthy"`
}

type observationRequest struct {
	Condition   string   `json:"condition"`
	Temperature *float64 `json:"temperature" validate:"required,gte=-60,lte=60"`
	Humidity    *float64 `json:"humidity" validate:"required,gte=0,lte=100"`
}

type riskRequest struct {
	DiseaseClass string              `json:"disease_class" validate:"required"`
	City         string              `json:"city"`
	Weather      *observationRequest `json:"weather"`
}

type riskResponse struct {
	DiseaseClass string                    `json:"disease_class"`
	City         string                    `json:"city,omitempty"`
	Observation  domain.WeatherObservation `json:"observation"`
	Risk         domain.RiskResult         `json:"risk"`
}

type survivalRequest struct {
	DiseaseClass string                 `json:"disease_class" validate:"required"`
	City         string                 `json:"city"`
	DaysAhead    *int                   `json:"days_ahead" validate:"omitnil,gte=0,lte=5"`
	Days         []domain.DailyForecast `json:"days"`
}

type weatherResponse struct {
	City     string                 `json:"city"`
	Current  domain.CurrentWeather  `json:"current"`
	Forecast []domain.DailyForecast `json:"forecast"`
}

type analyzeRequest struct {
	ID           string    `json:"id"`
	DiseaseClass string    `json:"disease_class" validate:"required"`
	Confidence   float64   `json:"confidence" validate:"gte=0,lte=100"`
	City         string    `json:"city"`
	DetectedAt   time.Time `json:"detected_at"`
}

type chatRequest struct {
	SessionID    string        `json:"session_id"`
	Message      string        `json:"message" validate:"required"`
	AssessmentID string        `json:"assessment_id"`
	Context      *chat.Context `json:"context"`
}

type clearRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type reportRequest struct {
	AssessmentID string             `json:"assessment_id" validate:"required_without=Assessment"`
	Assessment   *domain.Assessment `json:"assessment"`
}

type reportResponse struct {
	AssessmentID string `json:"assessment_id,omitempty"`
	Report       string `json:"report"`
}

// --- profiles and scoring ---

func (a *API) handleListDiseases(w http.ResponseWriter, _ *http.Request) {
	profiles := a.deps.Profiles.List()
	views := make([]diseaseView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, newDiseaseView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"diseases": views, "count": len(views)})
}

func (a *API) handleGetDisease(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid disease id")
		return
	}
	p, ok := a.deps.Profiles.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown disease class: "+id)
		return
	}
	writeJSON(w, http.StatusOK, newDiseaseView(p))
}

func newDiseaseView(p domain.DiseaseProfile) diseaseView {
	plant, disease := domain.ParseDiseaseClass(p.ID)
	return diseaseView{DiseaseProfile: p, Plant: plant, Disease: disease, Healthy: domain.IsHealthy(p.ID)}
}

func (a *API) handleRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if err := decodeJSON(w, r, a.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := riskResponse{DiseaseClass: req.DiseaseClass}
	if req.Weather != nil {
		resp.Observation = domain.WeatherObservation{
			Condition:    req.Weather.Condition,
			TemperatureC: *req.Weather.Temperature,
			Humidity:     *req.Weather.Humidity,
		}
	} else {
		if a.deps.Weather == nil {
			writeError(w, http.StatusBadRequest, "weather is required when live weather is disabled")
			return
		}
		resp.City = a.city(req.City)
		current, err := a.deps.Weather.CurrentWeather(r.Context(), resp.City)
		if err != nil {
			a.upstreamError(w, "current weather", err)
			return
		}
		resp.Observation = current.Observation()
	}

	resp.Risk = a.deps.Assessor.Scorer().Score(req.DiseaseClass, resp.Observation)
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSurvival(w http.ResponseWriter, r *http.Request) {
	var req survivalRequest
	if err := decodeJSON(w, r, a.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days := req.Days
	if len(days) == 0 {
		if a.deps.Weather == nil {
			writeError(w, http.StatusBadRequest, "days are required when live weather is disabled")
			return
		}
		fc, err := a.deps.Weather.Forecast(r.Context(), a.city(req.City))
		if err != nil {
			a.upstreamError(w, "forecast", err)
			return
		}
		days = domain.Aggregate(fc.Points, a.deps.Location)
	}

	daysAhead := domain.DefaultDaysAhead
	if req.DaysAhead != nil {
		daysAhead = *req.DaysAhead
	}
	writeJSON(w, http.StatusOK, a.deps.Assessor.Projector().Project(req.DiseaseClass, days, daysAhead))
}

func (a *API) handleWeather(w http.ResponseWriter, r *http.Request) {
	if a.deps.Weather == nil {
		writeError(w, http.StatusServiceUnavailable, "live weather is disabled")
		return
	}
	city := a.city(r.URL.Query().Get("city"))

	var (
		current domain.CurrentWeather
		fc      domain.Forecast
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		current, err = a.deps.Weather.CurrentWeather(ctx, city)
		return err
	})
	g.Go(func() error {
		var err error
		fc, err = a.deps.Weather.Forecast(ctx, city)
		return err
	})
	if err := g.Wait(); err != nil {
		a.upstreamError(w, "weather", err)
		return
	}

	writeJSON(w, http.StatusOK, weatherResponse{
		City:     city,
		Current:  current,
		Forecast: domain.Aggregate(fc.Points, a.deps.Location),
	})
}

// --- assessments ---

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, a.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	det := domain.Detection{
		ID:           req.ID,
		DiseaseClass: strings.TrimSpace(req.DiseaseClass),
		Confidence:   req.Confidence,
		City:         strings.TrimSpace(req.City),
		DetectedAt:   req.DetectedAt.UTC(),
	}
	if det.DetectedAt.IsZero() {
		det.DetectedAt = domain.Now().UTC()
	}

	assessment := a.deps.Assessor.Assess(r.Context(), det)
	if a.deps.Metrics != nil {
		a.deps.Metrics.ObserveAssessment(assessment)
	}
	if a.deps.History != nil {
		if err := a.deps.History.Save(r.Context(), assessment); err != nil {
			a.logger.Error("save assessment failed", "assessment_id", assessment.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (a *API) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	if a.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "assessment history is disabled")
		return
	}
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	list, err := a.deps.History.ListRecent(r.Context(), r.URL.Query().Get("city"), limit)
	if err != nil {
		a.logger.Error("list assessments failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assessments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": list, "count": len(list)})
}

func (a *API) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	if a.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "assessment history is disabled")
		return
	}
	assessment, ok := a.lookupAssessment(r.Context(), w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// lookupAssessment writes the error response itself and reports whether the
// assessment was found.
func (a *API) lookupAssessment(ctx context.Context, w http.ResponseWriter, id string) (domain.Assessment, bool) {
	assessment, err := a.deps.History.Get(ctx, id)
	switch {
	case errors.Is(err, domain.ErrAssessmentNotFound):
		writeError(w, http.StatusNotFound, "assessment not found: "+id)
		return domain.Assessment{}, false
	case err != nil:
		a.logger.Error("get assessment failed", "assessment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load assessment")
		return domain.Assessment{}, false
	}
	return assessment, true
}

// --- assistant ---

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	if a.deps.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "chat assistant is disabled")
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, a.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cc := req.Context
	if req.AssessmentID != "" {
		if a.deps.History == nil {
			writeError(w, http.StatusBadRequest, "assessment_id requires assessment history")
			return
		}
		assessment, ok := a.lookupAssessment(r.Context(), w, req.AssessmentID)
		if !ok {
			return
		}
		cc = chat.ContextFromAssessment(assessment)
	}

	reply, err := a.deps.Assistant.Chat(r.Context(), req.SessionID, req.Message, cc)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		a.upstreamError(w, "chat", err)
	default:
		writeJSON(w, http.StatusOK, reply)
	}
}

func (a *API) handleChatClear(w http.ResponseWriter, r *http.Request) {
	if a.deps.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "chat assistant is disabled")
		return
	}
	var req clearRequest
	if err := decodeJSON(w, r, a.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.deps.Assistant.Clear(req.SessionID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "session_id": req.SessionID})
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	if a.deps.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "chat assistant is disabled")
		return
	}
	var req reportRequest
	if err := decodeJSON(w, r, a.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var assessment domain.Assessment
	switch {
	case req.Assessment != nil:
		assessment = *req.Assessment
	case a.deps.History == nil:
		writeError(w, http.StatusBadRequest, "assessment_id requires assessment history")
		return
	default:
		var ok bool
		if assessment, ok = a.lookupAssessment(r.Context(), w, req.AssessmentID); !ok {
			return
		}
	}

	report, err := a.deps.Assistant.Report(r.Context(), assessment)
	if err != nil {
		a.upstreamError(w, "report", err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{AssessmentID: assessment.ID, Report: report})
}

// --- helpers ---

func (a *API) city(requested string) string {
	if c := strings.TrimSpace(requested); c != "" {
		return c
	}
	return a.deps.DefaultCity
}

func (a *API) upstreamError(w http.ResponseWriter, what string, err error) {
	a.logger.Warn("upstream call failed", "call", what, "error", err)
	writeError(w, http.StatusBadGateway, what+" unavailable: "+err.Error())
}
