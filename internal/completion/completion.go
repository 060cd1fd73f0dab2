// Package completion scores how far along a student's yearbook profile is.
package completion

import "yearbook/internal/model"

// Score rates a user's profile against their college's requirements.
// Four equal-weight checks, each worth 25 points: profile fields filled,
// yearbook answers covering every question, photos filling every slot, and
// basic account info (always satisfied once the account exists).
func Score(user *model.User, college *model.College) int {
	if user == nil || college == nil {
		return 0
	}

	score := 0
	const total = 4

	if user.Profile.Complete() {
		score++
	}
	if len(user.YearbookAnswers) >= len(college.YearbookQuestions) {
		score++
	}
	if len(user.Photos) >= college.PhotoSlots {
		score++
	}
	score++ // basic info

	return score * 100 / total
}
