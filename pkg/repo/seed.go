package repo

import (
	"time"

	"luminachat/pkg/directory"
	"luminachat/pkg/models"
)

// DefaultSeed is the collection substituted when storage is empty or
// corrupt: a single chat with the built-in agent and its greeting.
func DefaultSeed() []models.Chat {
	greeting := models.Message{
		ID:        models.NewMessageID(),
		SenderID:  directory.AgentUser.ID,
		Text:      "Привет! Я Lumina AI, твой персональный ассистент. Чем могу помочь сегодня?",
		Timestamp: time.Now().UTC().Add(-time.Hour),
		Status:    models.StatusRead,
	}
	chat := models.Chat{
		ID:           "c_welcome",
		Participants: []models.User{directory.AgentUser},
		Messages:     []models.Message{greeting},
		UnreadCount:  0,
	}
	chat.NormalizeLastMessage()
	return []models.Chat{chat}
}
