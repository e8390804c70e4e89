package audit

import (
	"context"
	"fmt"
	"log/slog"

	userDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-directory/internal/core/events"
)

const LoginStatusSuccess = "success"

type RepositoryAPI interface {
	CreateLoginLog(ctx context.Context, entry *userDatamodel.LoginLog) error
}

// EventHandler appends login_log rows for login events. Write failures are
// returned to the bus, which only logs them.
type EventHandler struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewEventHandler(repo RepositoryAPI, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *EventHandler) HandleUserLoggedIn(ctx context.Context, event events.Event) error {
	loginEvent, ok := event.(*events.UserLoggedInEvent)
	if !ok {
		h.logger.Error("invalid event type for login handler", "event_type", event.EventType())
		return fmt.Errorf("expected UserLoggedInEvent, got %T", event)
	}

	entry := &userDatamodel.LoginLog{
		UserID:    loginEvent.UserID,
		IPAddress: loginEvent.IPAddress,
		Status:    LoginStatusSuccess,
		LoginTime: loginEvent.OccurredAt(),
	}

	if err := h.repo.CreateLoginLog(ctx, entry); err != nil {
		return fmt.Errorf("record login for user %d: %w", loginEvent.UserID, err)
	}

	h.logger.Debug("login recorded", "user_id", loginEvent.UserID, "event_id", loginEvent.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeUserLoggedIn, h.HandleUserLoggedIn)
}
