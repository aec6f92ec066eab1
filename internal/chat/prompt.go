package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
)

const persona = "You are AgroScan AI, a practical agricultural assistant for smallholder farmers. " +
	"Give short, actionable guidance, explain how weather affects plant diseases, and list steps " +
	"the farmer can follow. Avoid technical jargon. When the message includes context data, " +
	"reason from it and from the knowledge below.\n\n" +
	"The current weather in the context data is live data for the farmer's location. " +
	"Always use it for weather questions and never claim you lack weather information.\n\n"

const answerShape = "When you respond, always: 1) state the likely problem in one sentence; " +
	"2) give immediate actions as bullet points; 3) give an outlook in safe days when available."

// Context is the assessment data attached to a farmer's message.
type Context struct {
	Detection *DetectionContext      `json:"disease_detection,omitempty"`
	Weather   *domain.CurrentWeather `json:"weather_current,omitempty"`
	Risk      *domain.RiskResult     `json:"risk_analysis,omitempty"`
	Survival  *domain.SurvivalReport `json:"survival_analysis,omitempty"`
}

// DetectionContext describes the classifier verdict in display form.
type DetectionContext struct {
	Plant        string  `json:"plant"`
	Disease      string  `json:"disease"`
	DiseaseClass string  `json:"full_class"`
	Confidence   float64 `json:"confidence"`
}

// ContextFromAssessment builds the chat context for an assessment.
func ContextFromAssessment(a domain.Assessment) *Context {
	return &Context{
		Detection: &DetectionContext{
			Plant:        a.Plant,
			Disease:      a.Disease,
			DiseaseClass: a.Detection.DiseaseClass,
			Confidence:   a.Detection.Confidence,
		},
		Weather:  a.Weather,
		Risk:     a.Risk,
		Survival: a.Survival,
	}
}

// SystemInstruction builds the assistant persona with a one-line climate
// summary per disease class.
func SystemInstruction(profiles *domain.ProfileStore) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("Important knowledge (crop - disease - climate):\n")
	b.WriteString(knowledgeSnippet(profiles))
	b.WriteString("\n\n")
	b.WriteString(answerShape)
	return b.String()
}

func knowledgeSnippet(profiles *domain.ProfileStore) string {
	list := profiles.List()
	lines := make([]string, 0, len(list))
	for _, p := range list {
		plant, disease := domain.ParseDiseaseClass(p.ID)
		lines = append(lines, fmt.Sprintf("%s - %s: Climate: %s. Key factors: %s.", plant, disease, p.Climate, p.KeyFactors))
	}
	return strings.Join(lines, " | ")
}

// formatMessage prefixes the farmer's message with a context block.
func formatMessage(profiles *domain.ProfileStore, cc *Context, message string) string {
	var b strings.Builder
	if cc != nil {
		b.WriteString("=== CURRENT CONTEXT DATA ===\n")
		if d := cc.Detection; d != nil {
			fmt.Fprintf(&b, "Disease Detection: Plant: %s, Disease: %s, Confidence: %s%%\n",
				orUnknown(d.Plant), orUnknown(d.Disease), num(d.Confidence))
			if p, ok := profiles.Lookup(d.DiseaseClass); ok {
				fmt.Fprintf(&b, "Knowledge: Climate: %s. Key factors: %s.\n", p.Climate, p.KeyFactors)
			}
		}
		if w := cc.Weather; w != nil {
			fmt.Fprintf(&b, "Current Weather: Location: %s, Temp: %s°C, Humidity: %s%%, Condition: %s\n",
				orUnknown(w.City), num(w.TemperatureC), num(w.Humidity), w.Description)
		}
		if r := cc.Risk; r != nil {
			fmt.Fprintf(&b, "Disease Risk: Level: %s. Factors: %s\n",
				strings.ToUpper(string(r.Level)), strings.Join(r.Factors, ", "))
		}
		if s := cc.Survival; s != nil {
			fmt.Fprintf(&b, "Survival Analysis: Safe Days: %d, Outlook: %s\n",
				s.SurvivalDays, strings.ToUpper(string(s.Outlook)))
		}
		b.WriteString("=== END CONTEXT DATA ===\n\n")
	}
	b.WriteString("Farmer's Message: ")
	b.WriteString(message)
	return b.String()
}

// reportPrompt asks for a structured, non-conversational management report.
func reportPrompt(a domain.Assessment) string {
	var b strings.Builder
	b.WriteString("Generate a detailed but easy-to-understand, numbered report for a farmer about their crop. ")
	b.WriteString("Only include the report content, without greetings or sign-offs.\n\n")

	b.WriteString("Disease Detection:\n")
	fmt.Fprintf(&b, "- Plant: %s\n- Disease: %s\n- Confidence: %s%%\n\n",
		orNA(a.Plant), orNA(a.Disease), num(a.Detection.Confidence))

	b.WriteString("Weather Conditions:\n")
	if w := a.Weather; w != nil {
		fmt.Fprintf(&b, "- Location: %s\n- Temperature: %s°C\n- Humidity: %s%%\n- Condition: %s\n\n",
			orNA(w.City), num(w.TemperatureC), num(w.Humidity), orNA(w.Description))
	} else {
		b.WriteString("- Not available\n\n")
	}

	b.WriteString("Risk Assessment:\n")
	if r := a.Risk; r != nil {
		fmt.Fprintf(&b, "- Risk Level: %s\n- Message: %s\n", strings.ToUpper(string(r.Level)), r.Message)
		if len(r.Factors) > 0 {
			fmt.Fprintf(&b, "- Factors: %s\n", strings.Join(r.Factors, "; "))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("- Not available\n\n")
	}

	if s := a.Survival; s != nil {
		b.WriteString("Outlook:\n")
		fmt.Fprintf(&b, "- Safe Days: %d\n- Outlook: %s\n- High Risk Days: %d\n\n",
			s.SurvivalDays, strings.ToUpper(string(s.Outlook)), s.HighRiskDays)
	}

	b.WriteString("Structure the report with these sections:\n")
	b.WriteString("1. Understanding the Disease: what it is and how it affects the plant.\n")
	b.WriteString("2. Weather Impact: why the current and forecast weather matter for this disease.\n")
	b.WriteString("3. Immediate Action Plan: the steps to take right now.\n")
	b.WriteString("4. Future Prevention: long-term measures against recurrence.\n")
	return b.String()
}

var (
	boldItalicRe = regexp.MustCompile(`\*\*\*(.*?)\*\*\*`)
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	bulletRe     = regexp.MustCompile(`(?m)^[-*]\s+`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n`)
)

// CleanText strips markdown emphasis and headings, normalizes bullets to "•",
// and collapses blank lines, for plain-text chat clients.
func CleanText(text string) string {
	text = boldItalicRe.ReplaceAllString(text, "$1")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "• ")
	text = blankLinesRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
