// Package telegram exposes the risk engine and the chat assistant as a
// Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/couchcryptid/crop-risk-service/internal/chat"
	"github.com/couchcryptid/crop-risk-service/internal/domain"
)

const helpText = "Available commands:\n" +
	"/diseases - List the supported disease classes\n" +
	"/risk <disease_class> [city] - Current weather risk for a disease\n" +
	"/outlook <disease_class> [city] - Forecast outlook for a disease\n" +
	"/clear - Forget this conversation\n" +
	"/help - Show this help message\n\n" +
	"Any other message goes to the crop assistant."

// Assessor scores a detection against live weather.
type Assessor interface {
	Assess(ctx context.Context, det domain.Detection) domain.Assessment
}

// Handler turns Telegram messages into reply text. It keeps the last
// assessment per chat so follow-up questions carry its context.
type Handler struct {
	profiles  *domain.ProfileStore
	assessor  Assessor
	assistant *chat.Assistant
	logger    *slog.Logger

	mu   sync.Mutex
	last map[int64]domain.Assessment
}

// NewHandler creates a Handler. A nil assistant disables free-text chat.
func NewHandler(profiles *domain.ProfileStore, assessor Assessor, assistant *chat.Assistant, logger *slog.Logger) *Handler {
	return &Handler{
		profiles:  profiles,
		assessor:  assessor,
		assistant: assistant,
		logger:    logger,
		last:      make(map[int64]domain.Assessment),
	}
}

// Handle returns the reply for one incoming message.
func (h *Handler) Handle(ctx context.Context, message *tgbotapi.Message) string {
	chatID := message.Chat.ID
	if !message.IsCommand() {
		return h.handleText(ctx, chatID, message.Text)
	}

	args := message.CommandArguments()
	h.logger.Debug("telegram command", "chat_id", chatID, "command", message.Command(), "args", args)
	switch message.Command() {
	case "start":
		return "Welcome to the Crop Risk bot! Send /risk with a disease class, for example " +
			"/risk Tomato___Late_blight Pune, or /help for more information."
	case "help":
		return helpText
	case "diseases":
		return h.diseaseList()
	case "risk":
		return h.handleAssess(ctx, chatID, args, formatRisk)
	case "outlook":
		return h.handleAssess(ctx, chatID, args, formatOutlook)
	case "clear":
		h.clear(chatID)
		return "Conversation cleared."
	default:
		return "Unknown command. Use /help to see available commands."
	}
}

func (h *Handler) diseaseList() string {
	var b strings.Builder
	b.WriteString("Supported disease classes:\n\n")
	for _, id := range h.profiles.IDs() {
		b.WriteString("• ")
		b.WriteString(id)
		b.WriteString("\n")
	}
	b.WriteString("\nUse /risk <disease_class> [city] to check one.")
	return b.String()
}

func (h *Handler) handleAssess(ctx context.Context, chatID int64, args string, format func(domain.Assessment) string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "Please specify a disease class. Example: /risk Tomato___Late_blight Pune"
	}
	diseaseID, ok := h.resolveDisease(fields[0])
	if !ok {
		return fmt.Sprintf("Unknown disease class '%s'. Use /diseases to see the supported classes.", fields[0])
	}

	assessment := h.assessor.Assess(ctx, domain.Detection{
		DiseaseClass: diseaseID,
		City:         strings.Join(fields[1:], " "),
		DetectedAt:   domain.Now().UTC(),
	})

	h.mu.Lock()
	h.last[chatID] = assessment
	h.mu.Unlock()

	return format(assessment)
}

// resolveDisease accepts identifiers in any letter case.
func (h *Handler) resolveDisease(arg string) (string, bool) {
	if _, ok := h.profiles.Lookup(arg); ok {
		return arg, true
	}
	for _, id := range h.profiles.IDs() {
		if strings.EqualFold(id, arg) {
			return id, true
		}
	}
	return "", false
}

func (h *Handler) handleText(ctx context.Context, chatID int64, text string) string {
	if h.assistant == nil {
		return "I don't understand. Use /help to see available commands."
	}

	var cc *chat.Context
	h.mu.Lock()
	if a, ok := h.last[chatID]; ok {
		cc = chat.ContextFromAssessment(a)
	}
	h.mu.Unlock()

	reply, err := h.assistant.Chat(ctx, sessionID(chatID), text, cc)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return "Please send a question about your crop."
	case err != nil:
		h.logger.Error("telegram chat failed", "chat_id", chatID, "error", err)
		return "The assistant is unavailable right now. Please try again later."
	}
	return reply.Response
}

func (h *Handler) clear(chatID int64) {
	h.mu.Lock()
	delete(h.last, chatID)
	h.mu.Unlock()
	if h.assistant != nil {
		h.assistant.Sessions().Evict(sessionID(chatID))
	}
}

func sessionID(chatID int64) string {
	return "telegram-" + strconv.FormatInt(chatID, 10)
}

func formatHeader(b *strings.Builder, a domain.Assessment) {
	fmt.Fprintf(b, "🌿 %s - %s\n", a.Plant, cases.Title(language.English).String(a.Disease))
	if w := a.Weather; w != nil {
		fmt.Fprintf(b, "📍 %s: %s°C, %s%% humidity, %s\n",
			w.City, formatNum(w.TemperatureC), formatNum(w.Humidity), w.Description)
	} else {
		fmt.Fprintf(b, "📍 %s: weather unavailable\n", a.City)
	}
}

func formatRisk(a domain.Assessment) string {
	var b strings.Builder
	formatHeader(&b, a)

	r := a.Risk
	if r == nil {
		b.WriteString("\nRisk could not be calculated without current weather.")
		return b.String()
	}
	fmt.Fprintf(&b, "\n⚠️ Risk: %s (score %d)\n%s\n", strings.ToUpper(string(r.Level)), r.Score, r.Message)
	for _, f := range r.Factors {
		fmt.Fprintf(&b, "• %s\n", f)
	}
	if r.Recommendation != "" {
		fmt.Fprintf(&b, "💡 %s\n", r.Recommendation)
	}
	if r.Climate != "" {
		fmt.Fprintf(&b, "\nClimate: %s. Key factors: %s.\n", r.Climate, r.KeyFactors)
	}
	if s := a.Survival; s != nil {
		fmt.Fprintf(&b, "\nOutlook: %s. Use /outlook for the daily forecast.", strings.ToUpper(string(s.Outlook)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatOutlook(a domain.Assessment) string {
	var b strings.Builder
	formatHeader(&b, a)

	s := a.Survival
	if s == nil {
		b.WriteString("\nThe forecast is unavailable right now.")
		return b.String()
	}
	fmt.Fprintf(&b, "\n📅 Outlook: %s (safe days: %d)\n%s\n\n", strings.ToUpper(string(s.Outlook)), s.SurvivalDays, s.Message)
	for _, d := range s.DailyRisks {
		fmt.Fprintf(&b, "%s: %s, %s°C, %s%%, %s\n",
			d.Date, strings.ToUpper(string(d.Level)), formatNum(d.Temp), formatNum(d.Humidity), d.Condition)
	}
	b.WriteString("\nRecommendations:\n")
	for _, r := range s.Recommendations {
		fmt.Fprintf(&b, "• %s\n", r)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
