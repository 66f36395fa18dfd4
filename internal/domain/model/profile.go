package model

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Wire names of the optional text and option fields.
const (
	FieldUsername                   = "username"
	FieldBioText                    = "bio_text"
	FieldIncludeQualitativeAnalysis = "include_qualitative_analysis"
)

// ProfileText carries the optional raw text submitted with a payload. It is only
// scanned for suspicious phrases and quoted to the qualitative analyzer.
type ProfileText struct {
	Username string
	Bio      string
}

// IsEmpty reports whether no text was supplied.
func (t ProfileText) IsEmpty() bool {
	return strings.TrimSpace(t.Username) == "" && strings.TrimSpace(t.Bio) == ""
}

// ValidateProfileText reads the optional username and bio_text fields.
func ValidateProfileText(payload map[string]any) (ProfileText, error) {
	var (
		text ProfileText
		err  error
	)
	if text.Username, err = optionalString(payload, FieldUsername); err != nil {
		return ProfileText{}, err
	}
	if text.Bio, err = optionalString(payload, FieldBioText); err != nil {
		return ProfileText{}, err
	}
	return text, nil
}

// BoolOption reads an optional boolean-like field, returning def when absent.
func BoolOption(payload map[string]any, field string, def bool) (bool, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return def, nil
	}
	return coerceBool(v, field)
}

func optionalString(payload map[string]any, field string) (string, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", newValidationError(ValidationInvalidType, field)
	}
	return s, nil
}

// RawProfile is an account profile as returned by a platform lookup, before
// feature extraction.
type RawProfile struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	Biography     string `json:"biography"`
	ExternalURL   string `json:"external_url"`
	ProfilePicURL string `json:"profile_pic_url"`
	Private       bool   `json:"private"`
	Posts         int64  `json:"posts"`
	Followers     int64  `json:"followers"`
	Following     int64  `json:"following"`
}

// DeriveFeatures extracts the feature payload from a raw profile, including the
// username and biography text for scanning.
func DeriveFeatures(p RawProfile) map[string]any {
	fullName := strings.TrimSpace(p.FullName)
	compactName := strings.ToLower(strings.ReplaceAll(fullName, " ", ""))

	return map[string]any{
		FieldProfilePic:         boolToInt(strings.TrimSpace(p.ProfilePicURL) != ""),
		FieldUsernameDigitRatio: DigitRatio(p.Username),
		FieldFullnameWords:      int64(len(strings.Fields(fullName))),
		FieldFullnameDigitRatio: DigitRatio(fullName),
		FieldNameEqUsername:     boolToInt(p.Username != "" && compactName == strings.ToLower(p.Username)),
		FieldDescriptionLength:  int64(utf8.RuneCountInString(p.Biography)),
		FieldExternalURL:        boolToInt(strings.TrimSpace(p.ExternalURL) != ""),
		FieldPrivate:            boolToInt(p.Private),
		FieldPosts:              p.Posts,
		FieldFollowers:          p.Followers,
		FieldFollowing:          p.Following,
		FieldUsername:           p.Username,
		FieldBioText:            p.Biography,
	}
}

// DigitRatio is the share of digit runes in s, rounded to three decimals.
func DigitRatio(s string) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return math.Round(float64(digits)/float64(total)*1000) / 1000
}
