package ml

import "github.com/bibbank/profileguard/internal/domain/model"

// FeatureNames lists the classifier inputs in training order: the eleven
// contract features followed by six engineered ones.
var FeatureNames = []string{
	model.FieldProfilePic,
	model.FieldUsernameDigitRatio,
	model.FieldFullnameWords,
	model.FieldFullnameDigitRatio,
	model.FieldNameEqUsername,
	model.FieldDescriptionLength,
	model.FieldExternalURL,
	model.FieldPrivate,
	model.FieldPosts,
	model.FieldFollowers,
	model.FieldFollowing,
	"follower_following_ratio",
	"posts_per_follower",
	"has_description",
	"high_following",
	"suspicious_username",
	"engagement_proxy",
}

// Encode expands a feature vector into the training-order input row.
func Encode(fv model.FeatureVector) []float64 {
	posts := float64(fv.PostCount())
	followers := float64(fv.FollowerCount())
	following := float64(fv.FollowingCount())

	return []float64{
		flag(fv.HasProfilePicture()),
		fv.UsernameDigitRatio(),
		float64(fv.FullnameWordCount()),
		fv.FullnameDigitRatio(),
		flag(fv.NameEqualsUsername()),
		float64(fv.BioLength()),
		flag(fv.HasExternalURL()),
		flag(fv.IsPrivate()),
		posts,
		followers,
		following,
		followers / (following + 1),
		posts / (followers + 1),
		flag(fv.BioLength() > 0),
		flag(fv.FollowingCount() > 1000),
		flag(fv.UsernameDigitRatio() > 0.3),
		followers / (posts + 1),
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
