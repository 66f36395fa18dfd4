package llm

import (
	"fmt"
	"strings"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
)

const systemPrompt = "You are a social media security analyst AI. You write concise, professional threat assessments of account profiles."

// BuildPrompt renders the analysis request for one assessment.
func BuildPrompt(in port.AnalysisInput) string {
	f := in.Features
	var b strings.Builder

	b.WriteString("Analyze this account profile and provide a concise threat assessment.\n\n")
	b.WriteString("Account Profile Data:\n")
	fmt.Fprintf(&b, "- Has Profile Picture: %s\n", yesNo(f.HasProfilePicture()))
	fmt.Fprintf(&b, "- Username Digit Ratio: %.0f%%\n", f.UsernameDigitRatio()*100)
	fmt.Fprintf(&b, "- Full Name Word Count: %d\n", f.FullnameWordCount())
	fmt.Fprintf(&b, "- Full Name Digit Ratio: %.0f%%\n", f.FullnameDigitRatio()*100)
	fmt.Fprintf(&b, "- Name Equals Username: %s\n", yesNo(f.NameEqualsUsername()))
	fmt.Fprintf(&b, "- Bio Length: %d chars\n", f.BioLength())
	fmt.Fprintf(&b, "- Has External URL: %s\n", yesNo(f.HasExternalURL()))
	fmt.Fprintf(&b, "- Private Account: %s\n", yesNo(f.IsPrivate()))
	fmt.Fprintf(&b, "- Number of Posts: %d\n", f.PostCount())
	fmt.Fprintf(&b, "- Followers: %d\n", f.FollowerCount())
	fmt.Fprintf(&b, "- Following: %d\n", f.FollowingCount())

	if in.Text.Username != "" {
		fmt.Fprintf(&b, "- Username: %q\n", in.Text.Username)
	}
	if in.Text.Bio != "" {
		fmt.Fprintf(&b, "- Bio: %q\n", in.Text.Bio)
	}

	if len(in.RiskFactors) > 0 {
		b.WriteString("\nDetected Risk Factors:\n")
		for _, msg := range model.RiskFactorMessages(in.RiskFactors) {
			fmt.Fprintf(&b, "- %s\n", msg)
		}
	}

	b.WriteString("\n")
	if in.ClassifierAvailable {
		fmt.Fprintf(&b, "ML Model Probability: %.2f%%\n", in.Probability*100)
	} else {
		b.WriteString("ML Model Probability: unavailable (rule-based score only)\n")
	}
	fmt.Fprintf(&b, "Prediction: %s\n", in.Prediction)
	fmt.Fprintf(&b, "Risk Score: %.2f%%\n\n", in.CombinedScore*100)

	fmt.Fprintf(&b, "Provide a brief 3-4 sentence analysis covering:\n")
	fmt.Fprintf(&b, "1. Why this account appears to be a %s\n", strings.ToLower(in.Prediction))
	b.WriteString("2. Key behavioral red flags or positive signals\n")
	b.WriteString("3. Recommended action for the platform\n\n")
	b.WriteString("Be concise and professional. Do not use markdown formatting.")

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
