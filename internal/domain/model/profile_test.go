package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/model"
)

func TestDigitRatio(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"", 0},
		{"jane", 0},
		{"user12345", 0.556},
		{"123", 1},
		{"a1b", 0.333},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, model.DigitRatio(tt.input))
		})
	}
}

func TestDeriveFeatures(t *testing.T) {
	payload := model.DeriveFeatures(model.RawProfile{
		Username:      "janedoe",
		FullName:      "Jane Doe",
		Biography:     "Photographer",
		ExternalURL:   "https://example.com",
		ProfilePicURL: "https://cdn.example.com/p.jpg",
		Posts:         120,
		Followers:     3400,
		Following:     410,
	})

	assert.Equal(t, 1, payload["profile_pic"])
	assert.Equal(t, int64(2), payload["fullname_words"])
	assert.Equal(t, 1, payload["name_eq_username"])
	assert.Equal(t, int64(12), payload["description_length"])
	assert.Equal(t, 1, payload["external_url"])
	assert.Equal(t, "janedoe", payload["username"])

	fv, err := model.ValidateFeatures(payload, model.DefaultFeatureLimits())
	require.NoError(t, err)
	assert.True(t, fv.NameEqualsUsername())
	assert.Equal(t, int64(410), fv.FollowingCount())
}

func TestDeriveFeatures_EmptyProfile(t *testing.T) {
	payload := model.DeriveFeatures(model.RawProfile{})

	assert.Equal(t, 0, payload["profile_pic"])
	assert.Equal(t, 0, payload["name_eq_username"], "empty names never match")

	_, err := model.ValidateFeatures(payload, model.DefaultFeatureLimits())
	require.NoError(t, err)
}

func TestValidateProfileText(t *testing.T) {
	text, err := model.ValidateProfileText(map[string]any{"username": "bot_4821", "bio_text": "free followers"})
	require.NoError(t, err)
	assert.Equal(t, "bot_4821", text.Username)
	assert.False(t, text.IsEmpty())

	text, err = model.ValidateProfileText(map[string]any{})
	require.NoError(t, err)
	assert.True(t, text.IsEmpty())

	_, err = model.ValidateProfileText(map[string]any{"bio_text": 12})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.ValidationInvalidType, verr.Code)
}

func TestBoolOption(t *testing.T) {
	v, err := model.BoolOption(map[string]any{}, "include_qualitative_analysis", true)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = model.BoolOption(map[string]any{"include_qualitative_analysis": false}, "include_qualitative_analysis", true)
	require.NoError(t, err)
	assert.False(t, v)

	_, err = model.BoolOption(map[string]any{"include_qualitative_analysis": "no"}, "include_qualitative_analysis", true)
	assert.Error(t, err)
}
