package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RiskLevel is the qualitative bucket derived from a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskUnknown  RiskLevel = "unknown"
)

// Observation thresholds.
const (
	HumidityThreshold = 80.0 // percent, exclusive
	WarmThreshold     = 24.0 // °C, exclusive
	CoolThreshold     = 20.0 // °C, exclusive
	HotThreshold      = 30.0 // °C, exclusive
)

// Score thresholds.
const (
	highRiskScore     = 4
	moderateRiskScore = 2
)

// Risk messages and factors.
const (
	msgHighRisk     = "HIGH RISK: Weather conditions strongly favor disease progression"
	msgModerateRisk = "MODERATE RISK: Some weather conditions may worsen disease"
	msgLowRisk      = "LOW RISK: Weather conditions are relatively favorable"
	msgHealthy      = "Plant is healthy. Maintain good practices."
	msgNoProfile    = "Disease information not available"

	recHealthy = "Keep plants dry and well-ventilated"

	factorRain = "Rainfall will increase disease spread"
	factorWarm = "Warm temperatures favor disease development"
	factorCool = "Cool temperatures favor disease development"
	factorHot  = "Hot conditions favor disease/pest activity"
)

var rainKeywords = []string{"rain", "drizzle", "shower"}

// RiskResult is the risk reading for one disease under one observation.
type RiskResult struct {
	Level          RiskLevel `json:"risk"`
	Score          int       `json:"risk_score"`
	Message        string    `json:"message"`
	Factors        []string  `json:"factors"`
	Recommendation string    `json:"recommendation,omitempty"`
	Climate        string    `json:"disease_climate,omitempty"`
	KeyFactors     string    `json:"key_factors,omitempty"`
}

// ObservedTags maps an observation onto the worsening-condition vocabulary.
// It is the single place where condition text and thresholds are interpreted.
func ObservedTags(obs WeatherObservation) TagSet {
	var tags TagSet
	condition := strings.ToLower(obs.Condition)
	for _, kw := range rainKeywords {
		if strings.Contains(condition, kw) {
			tags = append(tags, TagRain)
			break
		}
	}
	if obs.Humidity > HumidityThreshold {
		tags = append(tags, TagHumidity)
	}
	if obs.TemperatureC > WarmThreshold {
		tags = append(tags, TagWarm)
	}
	if obs.TemperatureC < CoolThreshold {
		tags = append(tags, TagCool)
	}
	if obs.TemperatureC > HotThreshold {
		tags = append(tags, TagHot)
	}
	return tags
}

// ClassifyScore buckets a numeric score into a risk level.
func ClassifyScore(score int) RiskLevel {
	switch {
	case score >= highRiskScore:
		return RiskHigh
	case score >= moderateRiskScore:
		return RiskModerate
	default:
		return RiskLow
	}
}

func levelMessage(level RiskLevel) string {
	switch level {
	case RiskHigh:
		return msgHighRisk
	case RiskModerate:
		return msgModerateRisk
	default:
		return msgLowRisk
	}
}

// RiskScorer scores observations against the climate profile store.
// It holds no mutable state and is safe for concurrent use.
type RiskScorer struct {
	profiles *ProfileStore
}

// NewRiskScorer creates a scorer backed by the given profiles.
func NewRiskScorer(profiles *ProfileStore) *RiskScorer {
	return &RiskScorer{profiles: profiles}
}

// Profiles returns the store the scorer reads from.
func (s *RiskScorer) Profiles() *ProfileStore {
	return s.profiles
}

// Score rates how strongly an observation favors the given disease.
// Healthy classes always score low; classes missing from the store score unknown.
func (s *RiskScorer) Score(diseaseID string, obs WeatherObservation) RiskResult {
	profile, found := s.profiles.Lookup(diseaseID)
	if IsHealthy(diseaseID) {
		r := RiskResult{
			Level:          RiskLow,
			Message:        msgHealthy,
			Factors:        []string{},
			Recommendation: recHealthy,
		}
		if found {
			r.Climate = profile.Climate
			r.KeyFactors = profile.KeyFactors
		}
		return r
	}
	if !found {
		return RiskResult{
			Level:   RiskUnknown,
			Message: msgNoProfile,
			Factors: []string{},
		}
	}
	return ScoreProfile(profile, obs)
}

// ScoreProfile applies the scoring arithmetic to a known, diseased profile.
func ScoreProfile(profile DiseaseProfile, obs WeatherObservation) RiskResult {
	observed := ObservedTags(obs)
	worsening := profile.Worsening
	score := 0
	factors := []string{}

	if observed.Has(TagRain) && worsening.Has(TagRain, TagWet) {
		score += 2
		factors = append(factors, factorRain)
	}
	if observed.Has(TagHumidity) && worsening.Has(TagHumidity) {
		score += 2
		factors = append(factors, humidityFactor(obs.Humidity))
	}
	switch {
	case observed.Has(TagWarm) && worsening.Has(TagWarm):
		score++
		factors = append(factors, factorWarm)
	case observed.Has(TagCool) && worsening.Has(TagCool):
		score++
		factors = append(factors, factorCool)
	case observed.Has(TagHot) && worsening.Has(TagHot):
		score += 2
		factors = append(factors, factorHot)
	}

	level := ClassifyScore(score)
	return RiskResult{
		Level:      level,
		Score:      score,
		Message:    levelMessage(level),
		Factors:    factors,
		Climate:    profile.Climate,
		KeyFactors: profile.KeyFactors,
	}
}

func humidityFactor(humidity float64) string {
	return fmt.Sprintf("High humidity (%s%%) favors disease", strconv.FormatFloat(humidity, 'f', -1, 64))
}
