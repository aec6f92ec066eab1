package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

// ErrEmptyMessage is returned when the farmer's message is blank.
var ErrEmptyMessage = errors.New("message is empty")

// Completer produces the assistant's next turn for a conversation.
type Completer interface {
	Complete(ctx context.Context, system string, history []Message) (string, error)
}

// Reply is the assistant's answer to one message.
type Reply struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// Assistant answers farmer questions with assessment context attached.
type Assistant struct {
	completer Completer
	sessions  *SessionStore
	profiles  *domain.ProfileStore
	system    string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewAssistant creates an Assistant. The system instruction is built once
// from the profile store.
func NewAssistant(completer Completer, sessions *SessionStore, profiles *domain.ProfileStore, metrics *observability.Metrics, logger *slog.Logger) *Assistant {
	return &Assistant{
		completer: completer,
		sessions:  sessions,
		profiles:  profiles,
		system:    SystemInstruction(profiles),
		metrics:   metrics,
		logger:    logger,
	}
}

// Sessions returns the store holding conversation history.
func (a *Assistant) Sessions() *SessionStore {
	return a.sessions
}

// Chat sends a message within a session, creating the session when sessionID
// is empty or unknown. The context block is attached to this turn only; the
// history keeps the farmer's plain message.
func (a *Assistant) Chat(ctx context.Context, sessionID, message string, cc *Context) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}

	id, history := a.sessions.GetOrCreate(sessionID)
	turn := append(history, Message{Role: RoleUser, Content: formatMessage(a.profiles, cc, message)})

	text, err := a.completer.Complete(ctx, a.system, turn)
	if err != nil {
		a.observe("chat", err)
		a.logger.Error("chat completion failed", "session", id, "error", err)
		return Reply{}, fmt.Errorf("chat completion: %w", err)
	}
	a.observe("chat", nil)

	text = CleanText(text)
	if err := a.sessions.Append(id,
		Message{Role: RoleUser, Content: message},
		Message{Role: RoleAssistant, Content: text},
	); err != nil {
		// Evicted between read and write; the reply is still valid.
		a.logger.Warn("chat session evicted mid-turn", "session", id)
	}
	return Reply{SessionID: id, Response: text}, nil
}

// Clear drops a session's history.
func (a *Assistant) Clear(sessionID string) error {
	return a.sessions.Clear(sessionID)
}

// Report generates a one-shot management report for an assessment. It does
// not touch any session.
func (a *Assistant) Report(ctx context.Context, assessment domain.Assessment) (string, error) {
	prompt := reportPrompt(assessment)
	text, err := a.completer.Complete(ctx, a.system, []Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		a.observe("report", err)
		a.logger.Error("report completion failed", "assessment", assessment.ID, "error", err)
		return "", fmt.Errorf("report completion: %w", err)
	}
	a.observe("report", nil)
	return CleanText(text), nil
}

func (a *Assistant) observe(kind string, err error) {
	if a.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	a.metrics.ChatRequests.WithLabelValues(kind, outcome).Inc()
}
