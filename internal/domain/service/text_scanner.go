package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

// DefaultSuspiciousPhrases are phrases common in spam and impersonation bios.
var DefaultSuspiciousPhrases = []string{
	"free followers",
	"follow back",
	"followback",
	"f4f",
	"l4l",
	"giveaway",
	"dm for promo",
	"click the link",
	"link in bio",
	"earn money",
	"make money",
	"investment",
	"bitcoin",
	"crypto",
	"forex",
	"cash app",
	"sugar daddy",
	"whatsapp",
	"official account",
	"verified",
}

// TextScanner flags suspicious phrases in a username or bio.
type TextScanner struct {
	phrases  []string
	patterns []*regexp.Regexp
}

// NewTextScanner compiles a scanner for the given phrases. Matching is
// case-insensitive and anchored on word boundaries.
func NewTextScanner(phrases []string) *TextScanner {
	s := &TextScanner{}
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		s.phrases = append(s.phrases, p)
		s.patterns = append(s.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p)+`\b`))
	}
	return s
}

// Scan returns the flagged phrases in list order, each at most once.
func (s *TextScanner) Scan(text model.ProfileText) []string {
	if s == nil || text.IsEmpty() {
		return nil
	}
	// Usernames often separate words with "_" or ".".
	username := strings.NewReplacer("_", " ", ".", " ").Replace(text.Username)
	haystack := username + "\n" + text.Bio

	var flagged []string
	for i, re := range s.patterns {
		if re.MatchString(haystack) {
			flagged = append(flagged, s.phrases[i])
		}
	}
	return flagged
}

// Factors converts flagged phrases into informational risk factors.
func (s *TextScanner) Factors(text model.ProfileText) []model.RiskFactor {
	flagged := s.Scan(text)
	if len(flagged) == 0 {
		return nil
	}
	factors := make([]model.RiskFactor, 0, len(flagged))
	for _, phrase := range flagged {
		factors = append(factors, model.RiskFactor{
			Code:    valueobject.CodeSuspiciousText,
			Message: fmt.Sprintf("Suspicious text: %q", phrase),
		})
	}
	return factors
}
