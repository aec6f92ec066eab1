package domain

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// ConditionTag names a weather attribute that accelerates or suppresses a disease.
type ConditionTag string

// Worsening condition vocabulary.
const (
	TagRain     ConditionTag = "rain"
	TagWet      ConditionTag = "wet"
	TagHumidity ConditionTag = "humidity"
	TagWarm     ConditionTag = "warm"
	TagCool     ConditionTag = "cool"
	TagHot      ConditionTag = "hot"
	TagDry      ConditionTag = "dry"
	TagWind     ConditionTag = "wind"
	TagShade    ConditionTag = "shade"
	TagStress   ConditionTag = "stress"
	TagDew      ConditionTag = "dew"
)

// Tags that only appear on the safe side of a profile.
const (
	TagSunny      ConditionTag = "sunny"
	TagVentilated ConditionTag = "ventilated"
	TagHumid      ConditionTag = "humid"
	TagStable     ConditionTag = "stable"
)

var worseningVocabulary = []ConditionTag{
	TagRain, TagWet, TagHumidity, TagWarm, TagCool, TagHot,
	TagDry, TagWind, TagShade, TagStress, TagDew,
}

var safeVocabulary = append(slices.Clone(worseningVocabulary),
	TagSunny, TagVentilated, TagHumid, TagStable,
)

// TagSet is a small ordered set of condition tags.
type TagSet []ConditionTag

// Has reports whether the set contains any of the given tags.
func (s TagSet) Has(tags ...ConditionTag) bool {
	for _, want := range tags {
		if slices.Contains(s, want) {
			return true
		}
	}
	return false
}

// DiseaseProfile is the climate affinity of one classifier disease class.
type DiseaseProfile struct {
	ID         string  `json:"id"`
	Climate    string  `json:"climate"`
	KeyFactors string  `json:"key_factors"`
	F1Score    float64 `json:"f1_score"`
	Worsening  TagSet  `json:"worsening_conditions"`
	Safe       TagSet  `json:"safe_conditions"`
}

// healthyMarker identifies the "no disease detected" classes, e.g. "Tomato___healthy".
const healthyMarker = "healthy"

// classSeparator splits a classifier label into plant and disease, e.g. "Potato___Late_blight".
const classSeparator = "___"

// IsHealthy reports whether a disease identifier denotes the healthy case.
func IsHealthy(diseaseID string) bool {
	return strings.Contains(strings.ToLower(diseaseID), healthyMarker)
}

// ParseDiseaseClass splits a classifier label into human-readable plant and
// disease names: "Pepper,_bell___Bacterial_spot" -> ("Pepper bell", "Bacterial spot").
func ParseDiseaseClass(diseaseID string) (plant, disease string) {
	parts := strings.SplitN(diseaseID, classSeparator, 2)
	plant = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(parts[0], "_", " "), ",", ""))
	if len(parts) < 2 {
		return plant, healthyMarker
	}
	disease = strings.Join(strings.Fields(strings.ReplaceAll(parts[1], "_", " ")), " ")
	return plant, disease
}

// ProfileStore is the immutable disease -> climate profile table.
type ProfileStore struct {
	profiles map[string]DiseaseProfile
	ids      []string
}

// NewProfileStore validates and indexes the given profiles. Unknown condition
// tags, empty identifiers, and duplicates are rejected.
func NewProfileStore(profiles []DiseaseProfile) (*ProfileStore, error) {
	s := &ProfileStore{
		profiles: make(map[string]DiseaseProfile, len(profiles)),
		ids:      make([]string, 0, len(profiles)),
	}
	var errs []error
	for _, p := range profiles {
		if p.ID == "" {
			errs = append(errs, errors.New("profile with empty id"))
			continue
		}
		if _, dup := s.profiles[p.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate profile", p.ID))
			continue
		}
		for _, tag := range p.Worsening {
			if !slices.Contains(worseningVocabulary, tag) {
				errs = append(errs, fmt.Errorf("%s: unknown worsening condition %q", p.ID, tag))
			}
		}
		for _, tag := range p.Safe {
			if !slices.Contains(safeVocabulary, tag) {
				errs = append(errs, fmt.Errorf("%s: unknown safe condition %q", p.ID, tag))
			}
		}
		p.Worsening = slices.Clone(p.Worsening)
		p.Safe = slices.Clone(p.Safe)
		s.profiles[p.ID] = p
		s.ids = append(s.ids, p.ID)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("load climate profiles: %w", errors.Join(errs...))
	}
	sort.Strings(s.ids)
	return s, nil
}

var defaultStore = sync.OnceValue(func() *ProfileStore {
	s, err := NewProfileStore(climateTable)
	if err != nil {
		panic(err)
	}
	return s
})

// DefaultProfileStore returns the process-wide store built from the built-in
// climate table.
func DefaultProfileStore() *ProfileStore {
	return defaultStore()
}

// Lookup returns the profile for a disease identifier. The returned profile
// does not share memory with the store.
func (s *ProfileStore) Lookup(diseaseID string) (DiseaseProfile, bool) {
	p, ok := s.profiles[diseaseID]
	if !ok {
		return DiseaseProfile{}, false
	}
	p.Worsening = slices.Clone(p.Worsening)
	p.Safe = slices.Clone(p.Safe)
	return p, true
}

// IDs returns all disease identifiers in lexical order.
func (s *ProfileStore) IDs() []string {
	return slices.Clone(s.ids)
}

// List returns all profiles ordered by identifier.
func (s *ProfileStore) List() []DiseaseProfile {
	out := make([]DiseaseProfile, 0, len(s.ids))
	for _, id := range s.ids {
		p, _ := s.Lookup(id)
		out = append(out, p)
	}
	return out
}

// Len returns the number of profiles.
func (s *ProfileStore) Len() int {
	return len(s.ids)
}
