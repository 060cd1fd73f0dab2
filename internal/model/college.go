package model

import "time"

// College groups students and defines their yearbook requirements.
type College struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	YearbookQuestions []string  `json:"yearbook_questions"`
	PhotoSlots        int       `json:"photo_slots"`
	CreatedAt         time.Time `json:"created_at"`
}
