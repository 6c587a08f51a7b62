package domain

import "time"

type CommandContext struct {
	ChatID    int64
	UserID    int64
	Sender    string
	Message   string
	Timestamp time.Time
}

func NewCommandContext(chatID, userID int64, sender, message string) *CommandContext {
	return &CommandContext{
		ChatID:    chatID,
		UserID:    userID,
		Sender:    sender,
		Message:   message,
		Timestamp: time.Now(),
	}
}
