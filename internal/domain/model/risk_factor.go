package model

import "github.com/bibbank/profileguard/internal/domain/valueobject"

// RiskFactor is one triggered rule: a closed code, a human-readable message and
// the weight the rule contributes to rule severity.
type RiskFactor struct {
	Code    valueobject.RiskFactorCode
	Message string
	Weight  float64
}

// RiskFactorMessages renders factors to their message strings, preserving order.
func RiskFactorMessages(factors []RiskFactor) []string {
	messages := make([]string, 0, len(factors))
	for _, f := range factors {
		messages = append(messages, f.Message)
	}
	return messages
}
