package sendscorereport

import "unichance/internal/scoring"

type Input struct {
	UserID       string           `json:"userId"`
	ProgramID    int64            `json:"programId,omitempty"`
	ProgramTitle string           `json:"programTitle,omitempty"`
	Score        int              `json:"score"`
	Category     scoring.Category `json:"category"`
	Advice       string           `json:"advice,omitempty"`
	NextSteps    []string         `json:"nextSteps,omitempty"`
	NotifySMS    bool             `json:"notifySms,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// message is a rendered report.
type message struct {
	Subject string
	Text    string
	HTML    string
	SMS     string
}
