package valueobject

import "fmt"

// RiskFactorCode identifies one rule in the closed rule set. Consumers filter
// and localize on the code, never on the message text.
type RiskFactorCode struct {
	value string
}

var (
	CodeNoProfilePicture           = RiskFactorCode{value: "NO_PROFILE_PICTURE"}
	CodeHighUsernameDigitRatio     = RiskFactorCode{value: "HIGH_USERNAME_DIGIT_RATIO"}
	CodeNameEqualsUsername         = RiskFactorCode{value: "NAME_EQUALS_USERNAME"}
	CodeEmptyBio                   = RiskFactorCode{value: "EMPTY_BIO"}
	CodeNoExternalURL              = RiskFactorCode{value: "NO_EXTERNAL_URL"}
	CodeFollowerFollowingImbalance = RiskFactorCode{value: "FOLLOWER_FOLLOWING_IMBALANCE"}
	CodeLowPostHighFollowing       = RiskFactorCode{value: "LOW_POST_HIGH_FOLLOWING"}
	CodeSuspiciousText             = RiskFactorCode{value: "SUSPICIOUS_TEXT"}
)

// AllRiskFactorCodes returns every code in rule-table order.
func AllRiskFactorCodes() []RiskFactorCode {
	return []RiskFactorCode{
		CodeNoProfilePicture,
		CodeHighUsernameDigitRatio,
		CodeNameEqualsUsername,
		CodeEmptyBio,
		CodeNoExternalURL,
		CodeFollowerFollowingImbalance,
		CodeLowPostHighFollowing,
		CodeSuspiciousText,
	}
}

// RiskFactorCodeFromString reconstructs a RiskFactorCode from its string representation.
func RiskFactorCodeFromString(s string) (RiskFactorCode, error) {
	for _, c := range AllRiskFactorCodes() {
		if c.value == s {
			return c, nil
		}
	}
	return RiskFactorCode{}, fmt.Errorf("invalid risk factor code: %s", s)
}

// String returns the string representation.
func (c RiskFactorCode) String() string {
	return c.value
}

// IsZero returns true if the code has not been set.
func (c RiskFactorCode) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another RiskFactorCode.
func (c RiskFactorCode) Equal(other RiskFactorCode) bool {
	return c.value == other.value
}
