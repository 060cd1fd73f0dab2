package model

import "time"

// Testimonial is a short note one student writes about another. Identity is
// the ordered (from, to) pair; writing again overwrites the earlier text.
type Testimonial struct {
	FromStudentID   string    `json:"from_student_id"`
	FromStudentName string    `json:"from_student_name,omitempty"`
	ToStudentID     string    `json:"to_student_id"`
	Text            string    `json:"text"`
	WordCount       int       `json:"word_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
