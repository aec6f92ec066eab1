package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func newTestScorer(t *testing.T, profiles ...DiseaseProfile) *RiskScorer {
	t.Helper()
	store, err := NewProfileStore(profiles)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	return NewRiskScorer(store)
}

func TestRiskScorer_Score_Scenarios(t *testing.T) {
	scorer := newTestScorer(t,
		DiseaseProfile{ID: "Test___Blight", Climate: "Warm & Wet", KeyFactors: "Rain", Worsening: TagSet{TagRain, TagHumidity, TagWarm}},
	)

	t.Run("light rain warm and humid", func(t *testing.T) {
		got := scorer.Score("Test___Blight", WeatherObservation{Condition: "light rain", TemperatureC: 28, Humidity: 85})

		want := RiskResult{
			Level:   RiskHigh,
			Score:   5,
			Message: msgHighRisk,
			Factors: []string{
				"Rainfall will increase disease spread",
				"High humidity (85%) favors disease",
				"Warm temperatures favor disease development",
			},
			Climate:    "Warm & Wet",
			KeyFactors: "Rain",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Score mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("clear mild and dry", func(t *testing.T) {
		got := scorer.Score("Test___Blight", WeatherObservation{Condition: "clear", TemperatureC: 15, Humidity: 40})
		assert.Equal(t, RiskLow, got.Level)
		assert.Equal(t, 0, got.Score)
		assert.Empty(t, got.Factors)
		assert.NotNil(t, got.Factors)
		assert.Equal(t, msgLowRisk, got.Message)
	})
}

func TestRiskScorer_Score_HealthyAndUnknown(t *testing.T) {
	scorer := NewRiskScorer(DefaultProfileStore())
	storm := WeatherObservation{Condition: "heavy intensity rain", TemperatureC: 35, Humidity: 99}

	t.Run("healthy ignores weather", func(t *testing.T) {
		for _, id := range []string{"Tomato___healthy", "Apple___healthy", "Banana___healthy"} {
			got := scorer.Score(id, storm)
			assert.Equal(t, RiskLow, got.Level, id)
			assert.Equal(t, 0, got.Score, id)
			assert.Equal(t, []string{}, got.Factors, id)
			assert.Equal(t, msgHealthy, got.Message, id)
			assert.Equal(t, recHealthy, got.Recommendation, id)
		}
	})

	t.Run("unknown disease", func(t *testing.T) {
		for _, obs := range []WeatherObservation{storm, {Condition: "clear", TemperatureC: 15, Humidity: 10}} {
			got := scorer.Score("Banana___Panama_disease", obs)
			assert.Equal(t, RiskUnknown, got.Level)
			assert.Equal(t, 0, got.Score)
			assert.Equal(t, "Disease information not available", got.Message)
		}
	})
}

func TestRiskScorer_Score_Branches(t *testing.T) {
	tests := []struct {
		name      string
		worsening TagSet
		obs       WeatherObservation
		score     int
		factors   []string
	}{
		{
			name:      "drizzle counts as rain for wet diseases",
			worsening: TagSet{TagWet},
			obs:       WeatherObservation{Condition: "Light Drizzle", TemperatureC: 22, Humidity: 50},
			score:     2,
			factors:   []string{factorRain},
		},
		{
			name:      "shower counts as rain",
			worsening: TagSet{TagRain},
			obs:       WeatherObservation{Condition: "shower rain", TemperatureC: 22, Humidity: 50},
			score:     2,
			factors:   []string{factorRain},
		},
		{
			name:      "rain ignored when disease does not worsen with it",
			worsening: TagSet{TagHumidity},
			obs:       WeatherObservation{Condition: "moderate rain", TemperatureC: 22, Humidity: 50},
			score:     0,
			factors:   []string{},
		},
		{
			name:      "humidity at threshold does not count",
			worsening: TagSet{TagHumidity},
			obs:       WeatherObservation{Condition: "clouds", TemperatureC: 22, Humidity: 80},
			score:     0,
			factors:   []string{},
		},
		{
			name:      "fractional humidity is reported as given",
			worsening: TagSet{TagHumidity},
			obs:       WeatherObservation{Condition: "clouds", TemperatureC: 22, Humidity: 83.5},
			score:     2,
			factors:   []string{"High humidity (83.5%) favors disease"},
		},
		{
			name:      "cool branch",
			worsening: TagSet{TagCool},
			obs:       WeatherObservation{Condition: "mist", TemperatureC: 12, Humidity: 50},
			score:     1,
			factors:   []string{factorCool},
		},
		{
			name:      "hot branch when disease is not warm-loving",
			worsening: TagSet{TagHot, TagDry},
			obs:       WeatherObservation{Condition: "clear sky", TemperatureC: 33, Humidity: 20},
			score:     2,
			factors:   []string{factorHot},
		},
		{
			name:      "warm shadows hot",
			worsening: TagSet{TagWarm, TagHot},
			obs:       WeatherObservation{Condition: "clear sky", TemperatureC: 33, Humidity: 20},
			score:     1,
			factors:   []string{factorWarm},
		},
		{
			name:      "temperature between cool and warm scores nothing",
			worsening: TagSet{TagWarm, TagCool, TagHot},
			obs:       WeatherObservation{Condition: "clear sky", TemperatureC: 22, Humidity: 20},
			score:     0,
			factors:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newTestScorer(t, DiseaseProfile{ID: "Test___Disease", Worsening: tt.worsening})
			got := scorer.Score("Test___Disease", tt.obs)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.factors, got.Factors)
			assert.Equal(t, ClassifyScore(tt.score), got.Level)
		})
	}
}

func TestClassifyScore(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{1, RiskLow},
		{2, RiskModerate},
		{3, RiskModerate},
		{4, RiskHigh},
		{6, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyScore(tt.score), "score %d", tt.score)
	}
}

func TestRiskScorer_RainNeverLowersScore(t *testing.T) {
	scorer := NewRiskScorer(DefaultProfileStore())
	for _, p := range scorer.Profiles().List() {
		if !p.Worsening.Has(TagRain) {
			continue
		}
		for _, temp := range []float64{10, 22, 27, 34} {
			for _, hum := range []float64{40, 90} {
				dry := scorer.Score(p.ID, WeatherObservation{Condition: "clear sky", TemperatureC: temp, Humidity: hum})
				wet := scorer.Score(p.ID, WeatherObservation{Condition: "clear sky with rain", TemperatureC: temp, Humidity: hum})
				assert.GreaterOrEqual(t, wet.Score, dry.Score, "%s at %.0f°C/%.0f%%", p.ID, temp, hum)
			}
		}
	}
}

func TestRiskScorer_Deterministic(t *testing.T) {
	scorer := NewRiskScorer(DefaultProfileStore())
	obs := WeatherObservation{Condition: "light rain", TemperatureC: 26, Humidity: 88}
	first := scorer.Score("Tomato___Early_blight", obs)
	second := scorer.Score("Tomato___Early_blight", obs)
	assert.Equal(t, first, second)
	assert.Equal(t, 5, first.Score)
}

func TestObservedTags(t *testing.T) {
	tests := []struct {
		name string
		obs  WeatherObservation
		want TagSet
	}{
		{"nothing notable", WeatherObservation{Condition: "few clouds", TemperatureC: 22, Humidity: 60}, nil},
		{"rain is case insensitive", WeatherObservation{Condition: "Heavy RAIN", TemperatureC: 22, Humidity: 60}, TagSet{TagRain}},
		{"hot implies warm", WeatherObservation{Condition: "clear", TemperatureC: 31, Humidity: 60}, TagSet{TagWarm, TagHot}},
		{"cool and humid", WeatherObservation{Condition: "mist", TemperatureC: 5, Humidity: 95}, TagSet{TagHumidity, TagCool}},
		{"boundaries are exclusive", WeatherObservation{Condition: "clear", TemperatureC: 24, Humidity: 80}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObservedTags(tt.obs))
		})
	}
}
