// Package testutil holds fixtures and container helpers shared by tests.
package testutil

import "github.com/bibbank/profileguard/internal/domain/model"

// SuspiciousPayload is a feature payload that trips every weighted rule:
// digit-heavy username, no picture or bio, 2 posts and 15 followers against
// 1500 following.
func SuspiciousPayload() map[string]any {
	return map[string]any{
		model.FieldProfilePic:         0,
		model.FieldUsernameDigitRatio: 0.55,
		model.FieldFullnameWords:      0,
		model.FieldFullnameDigitRatio: 0.0,
		model.FieldNameEqUsername:     1,
		model.FieldDescriptionLength:  0,
		model.FieldExternalURL:        0,
		model.FieldPrivate:            0,
		model.FieldPosts:              2,
		model.FieldFollowers:          15,
		model.FieldFollowing:          1500,
	}
}

// GenuinePayload is an established account that triggers no rule.
func GenuinePayload() map[string]any {
	return map[string]any{
		model.FieldProfilePic:         1,
		model.FieldUsernameDigitRatio: 0.0,
		model.FieldFullnameWords:      2,
		model.FieldFullnameDigitRatio: 0.0,
		model.FieldNameEqUsername:     0,
		model.FieldDescriptionLength:  85,
		model.FieldExternalURL:        1,
		model.FieldPrivate:            0,
		model.FieldPosts:              350,
		model.FieldFollowers:          12000,
		model.FieldFollowing:          800,
	}
}
