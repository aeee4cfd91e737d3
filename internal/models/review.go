package models

import "time"

type Review struct {
	ID         string    `json:"review_id"`
	OrderID    string    `json:"order_id"`
	Score      int       `json:"review_score"`
	Title      string    `json:"review_comment_title"`
	Message    string    `json:"review_comment_message"`
	CreatedAt  time.Time `json:"review_creation_date"`
	AnsweredAt time.Time `json:"review_answer_timestamp"`
}

const (
	LabelPositive = 0
	LabelNegative = 1

	NeutralScore = 3
)

// SentimentFromScore maps a 1-5 review score to a binary label. Negative
// reviews are the class of interest, so they carry label 1. A neutral
// score of 3, or anything out of range, reports ok=false.
func SentimentFromScore(score int) (label int, ok bool) {
	switch score {
	case 1, 2:
		return LabelNegative, true
	case 4, 5:
		return LabelPositive, true
	default:
		return 0, false
	}
}
