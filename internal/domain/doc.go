// Package domain models weather-driven plant disease risk.
//
// # Disease Classes
//
// Detections arrive from an upstream leaf-image classifier as class labels of
// the form "<Plant>___<Disease>", for example "Tomato___Late_blight" or
// "Pepper,_bell___Bacterial_spot". Labels containing "healthy" denote the
// no-disease case and always short-circuit scoring to the lowest risk.
// [ParseDiseaseClass] turns a label into display names.
//
// # Climate Profiles
//
// Every class maps to a [DiseaseProfile]: a climate label, a key-factors
// description, and two closed sets of [ConditionTag] values. Worsening tags
// name the weather that accelerates the disease; safe tags name the weather
// that suppresses it. Profiles are loaded once into a [ProfileStore] and never
// mutated. Tags outside the vocabulary fail at load time.
//
// # Risk Scoring
//
// A weather observation is first reduced to a set of observed tags by
// [ObservedTags]:
//
//	rain      condition text contains "rain", "drizzle" or "shower"
//	humidity  relative humidity > 80%
//	warm      temperature > 24°C
//	cool      temperature < 20°C
//	hot       temperature > 30°C
//
// Scoring then adds points in a fixed order, which is also the order in which
// contributing factors are reported:
//
//	rain observed, profile worsens with rain or wet      +2
//	humidity observed, profile worsens with humidity     +2
//	first of warm(+1) / cool(+1) / hot(+2) that matches the profile
//
// Levels: score ≥ 4 high | ≥ 2 moderate | otherwise low. Unknown classes score
// as "unknown".
//
// # Forecast Aggregation
//
// OpenWeatherMap returns 3-hour samples. [Aggregate] collapses them into one
// [DailyForecast] per local calendar date. The dominant condition is the most
// frequent description of the day, ties going to the first one seen.
//
// # Survival Projection
//
// [SurvivalProjector] scores each of the next N days and maps the count of
// high-risk days to an outlook:
//
//	healthy            excellent   survival = N
//	≥ 3 high days      critical    survival = 2
//	≥ 1 high day       concerning  survival = 4
//	otherwise          stable      survival = N
//
// # ID Generation
//
// Detection and assessment IDs are deterministic SHA-256 hashes of their
// identifying fields, so replays of the same detection upsert the same
// assessment row downstream. See [generateID].
package domain
