package model

import (
	"encoding/json"
	"math"
)

// Wire names of the feature payload.
const (
	FieldProfilePic         = "profile_pic"
	FieldUsernameDigitRatio = "nums_length_username"
	FieldFullnameWords      = "fullname_words"
	FieldFullnameDigitRatio = "nums_length_fullname"
	FieldNameEqUsername     = "name_eq_username"
	FieldDescriptionLength  = "description_length"
	FieldExternalURL        = "external_url"
	FieldPrivate            = "private"
	FieldPosts              = "posts"
	FieldFollowers          = "followers"
	FieldFollowing          = "following"
)

// DefaultMaxCount bounds count features to the range the classifier was trained on.
const DefaultMaxCount int64 = 10_000_000

// FeatureLimits bounds the feature space accepted by the validator.
type FeatureLimits struct {
	MaxCount int64
}

// DefaultFeatureLimits returns the limits used when none are configured.
func DefaultFeatureLimits() FeatureLimits {
	return FeatureLimits{MaxCount: DefaultMaxCount}
}

func (l FeatureLimits) maxCount() int64 {
	if l.MaxCount <= 0 {
		return DefaultMaxCount
	}
	return l.MaxCount
}

// FeatureParams is the typed, unvalidated form of a feature vector.
type FeatureParams struct {
	HasProfilePicture  bool
	UsernameDigitRatio float64
	FullnameWordCount  int64
	FullnameDigitRatio float64
	NameEqualsUsername bool
	BioLength          int64
	HasExternalURL     bool
	IsPrivate          bool
	PostCount          int64
	FollowerCount      int64
	FollowingCount     int64
}

// FeatureVector is the validated, normalized representation of one account's
// profile signals. It is never mutated after construction.
type FeatureVector struct {
	usernameDigitRatio float64
	fullnameDigitRatio float64
	fullnameWordCount  int64
	bioLength          int64
	postCount          int64
	followerCount      int64
	followingCount     int64
	hasProfilePicture  bool
	nameEqualsUsername bool
	hasExternalURL     bool
	isPrivate          bool
}

// NewFeatureVector validates typed parameters. Ratios and counts above the
// limit are clamped; negative counts are rejected.
func NewFeatureVector(p FeatureParams, limits FeatureLimits) (FeatureVector, error) {
	usernameRatio, err := clampRatio(FieldUsernameDigitRatio, p.UsernameDigitRatio)
	if err != nil {
		return FeatureVector{}, err
	}
	fullnameRatio, err := clampRatio(FieldFullnameDigitRatio, p.FullnameDigitRatio)
	if err != nil {
		return FeatureVector{}, err
	}

	counts := []struct {
		field string
		value *int64
	}{
		{FieldFullnameWords, &p.FullnameWordCount},
		{FieldDescriptionLength, &p.BioLength},
		{FieldPosts, &p.PostCount},
		{FieldFollowers, &p.FollowerCount},
		{FieldFollowing, &p.FollowingCount},
	}
	for _, c := range counts {
		if *c.value < 0 {
			return FeatureVector{}, newValidationError(ValidationOutOfRange, c.field)
		}
		if *c.value > limits.maxCount() {
			*c.value = limits.maxCount()
		}
	}

	return FeatureVector{
		hasProfilePicture:  p.HasProfilePicture,
		usernameDigitRatio: usernameRatio,
		fullnameWordCount:  p.FullnameWordCount,
		fullnameDigitRatio: fullnameRatio,
		nameEqualsUsername: p.NameEqualsUsername,
		bioLength:          p.BioLength,
		hasExternalURL:     p.HasExternalURL,
		isPrivate:          p.IsPrivate,
		postCount:          p.PostCount,
		followerCount:      p.FollowerCount,
		followingCount:     p.FollowingCount,
	}, nil
}

// ValidateFeatures validates an untyped payload against the feature contract.
// Fields are checked in declaration order and the first failure is returned.
func ValidateFeatures(payload map[string]any, limits FeatureLimits) (FeatureVector, error) {
	var (
		p   FeatureParams
		err error
	)

	if p.HasProfilePicture, err = requireBool(payload, FieldProfilePic); err != nil {
		return FeatureVector{}, err
	}
	if p.UsernameDigitRatio, err = requireNumber(payload, FieldUsernameDigitRatio); err != nil {
		return FeatureVector{}, err
	}
	if p.FullnameWordCount, err = requireCount(payload, FieldFullnameWords); err != nil {
		return FeatureVector{}, err
	}
	if p.FullnameDigitRatio, err = requireNumber(payload, FieldFullnameDigitRatio); err != nil {
		return FeatureVector{}, err
	}
	if p.NameEqualsUsername, err = requireBool(payload, FieldNameEqUsername); err != nil {
		return FeatureVector{}, err
	}
	if p.BioLength, err = requireCount(payload, FieldDescriptionLength); err != nil {
		return FeatureVector{}, err
	}
	if p.HasExternalURL, err = requireBool(payload, FieldExternalURL); err != nil {
		return FeatureVector{}, err
	}
	if p.IsPrivate, err = requireBool(payload, FieldPrivate); err != nil {
		return FeatureVector{}, err
	}
	if p.PostCount, err = requireCount(payload, FieldPosts); err != nil {
		return FeatureVector{}, err
	}
	if p.FollowerCount, err = requireCount(payload, FieldFollowers); err != nil {
		return FeatureVector{}, err
	}
	if p.FollowingCount, err = requireCount(payload, FieldFollowing); err != nil {
		return FeatureVector{}, err
	}

	return NewFeatureVector(p, limits)
}

// --- Accessors ---

func (f FeatureVector) HasProfilePicture() bool     { return f.hasProfilePicture }
func (f FeatureVector) UsernameDigitRatio() float64 { return f.usernameDigitRatio }
func (f FeatureVector) FullnameWordCount() int64    { return f.fullnameWordCount }
func (f FeatureVector) FullnameDigitRatio() float64 { return f.fullnameDigitRatio }
func (f FeatureVector) NameEqualsUsername() bool    { return f.nameEqualsUsername }
func (f FeatureVector) BioLength() int64            { return f.bioLength }
func (f FeatureVector) HasExternalURL() bool        { return f.hasExternalURL }
func (f FeatureVector) IsPrivate() bool             { return f.isPrivate }
func (f FeatureVector) PostCount() int64            { return f.postCount }
func (f FeatureVector) FollowerCount() int64        { return f.followerCount }
func (f FeatureVector) FollowingCount() int64       { return f.followingCount }

// FollowerFollowingRatio is follower_count / max(following_count, 1).
func (f FeatureVector) FollowerFollowingRatio() float64 {
	following := f.followingCount
	if following < 1 {
		following = 1
	}
	return float64(f.followerCount) / float64(following)
}

// Params returns the typed parameters the vector was built from, after clamping.
func (f FeatureVector) Params() FeatureParams {
	return FeatureParams{
		HasProfilePicture:  f.hasProfilePicture,
		UsernameDigitRatio: f.usernameDigitRatio,
		FullnameWordCount:  f.fullnameWordCount,
		FullnameDigitRatio: f.fullnameDigitRatio,
		NameEqualsUsername: f.nameEqualsUsername,
		BioLength:          f.bioLength,
		HasExternalURL:     f.hasExternalURL,
		IsPrivate:          f.isPrivate,
		PostCount:          f.postCount,
		FollowerCount:      f.followerCount,
		FollowingCount:     f.followingCount,
	}
}

// Payload renders the vector back into its wire form.
func (f FeatureVector) Payload() map[string]any {
	return map[string]any{
		FieldProfilePic:         boolToInt(f.hasProfilePicture),
		FieldUsernameDigitRatio: f.usernameDigitRatio,
		FieldFullnameWords:      f.fullnameWordCount,
		FieldFullnameDigitRatio: f.fullnameDigitRatio,
		FieldNameEqUsername:     boolToInt(f.nameEqualsUsername),
		FieldDescriptionLength:  f.bioLength,
		FieldExternalURL:        boolToInt(f.hasExternalURL),
		FieldPrivate:            boolToInt(f.isPrivate),
		FieldPosts:              f.postCount,
		FieldFollowers:          f.followerCount,
		FieldFollowing:          f.followingCount,
	}
}

func clampRatio(field string, v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, newValidationError(ValidationInvalidType, field)
	}
	switch {
	case v < 0:
		return 0, nil
	case v > 1:
		return 1, nil
	default:
		return v, nil
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// asNumber accepts the numeric representations produced by encoding/json and
// by in-process callers.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func lookup(payload map[string]any, field string) (any, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return nil, newValidationError(ValidationMissingField, field)
	}
	return v, nil
}

func requireBool(payload map[string]any, field string) (bool, error) {
	v, err := lookup(payload, field)
	if err != nil {
		return false, err
	}
	return coerceBool(v, field)
}

func coerceBool(v any, field string) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if n, ok := asNumber(v); ok {
		switch n {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	}
	return false, newValidationError(ValidationInvalidBoolean, field)
}

func requireNumber(payload map[string]any, field string) (float64, error) {
	v, err := lookup(payload, field)
	if err != nil {
		return 0, err
	}
	n, ok := asNumber(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, newValidationError(ValidationInvalidType, field)
	}
	return n, nil
}

func requireCount(payload map[string]any, field string) (int64, error) {
	n, err := requireNumber(payload, field)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, newValidationError(ValidationOutOfRange, field)
	}
	if n != math.Trunc(n) {
		return 0, newValidationError(ValidationInvalidType, field)
	}
	if n > float64(math.MaxInt64/2) {
		return math.MaxInt64 / 2, nil
	}
	return int64(n), nil
}
