package model

import "time"

// User roles. Closed set; every role-guarded endpoint checks one of these.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Profile holds the editable student profile fields.
type Profile struct {
	FullName    string `json:"full_name,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// Complete reports whether all four profile fields are filled.
func (p Profile) Complete() bool {
	return p.FullName != "" && p.Nickname != "" && p.Phone != "" && p.DateOfBirth != ""
}

// PhotoSlot is one uploaded photo occupying a numbered slot. A user's photo
// list holds at most one entry per slot index.
type PhotoSlot struct {
	SlotIndex  int       `json:"slot_index"`
	FileID     string    `json:"file_id"`
	FileURL    string    `json:"file_url"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// User is an account record. Password fields never serialize to JSON.
type User struct {
	ID                string            `json:"id"`
	Email             string            `json:"email"`
	Name              string            `json:"name,omitempty"`
	HashedPassword    string            `json:"-"`
	PlainPassword     string            `json:"-"`
	UserType          string            `json:"user_type"`
	CollegeID         string            `json:"college_id,omitempty"`
	Profile           Profile           `json:"profile"`
	YearbookAnswers   map[string]string `json:"yearbook_answers"`
	Photos            []PhotoSlot       `json:"photos"`
	ProfileCompletion int               `json:"profile_completion"`
	CreatedAt         time.Time         `json:"created_at"`
}

// PhotoAt returns the photo occupying the given slot, or nil.
func (u *User) PhotoAt(slot int) *PhotoSlot {
	for i := range u.Photos {
		if u.Photos[i].SlotIndex == slot {
			return &u.Photos[i]
		}
	}
	return nil
}
