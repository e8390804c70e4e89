package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserLoggedIn = "user.logged_in"
)

type UserLoggedInEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	IPAddress string `json:"ip_address"`
}

func NewUserLoggedInEvent(userID int64, ipAddress string) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserLoggedIn,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":    userID,
				"ip_address": ipAddress,
			},
		},
		UserID:    userID,
		IPAddress: ipAddress,
	}
}
