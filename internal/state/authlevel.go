// Package state adapts provider arbitration events into a
// reducer-shaped wallet state consumable by front ends, and layers an
// authorization-level model on top.
package state

// AuthLevel describes how strongly the user's identity has been
// established.
type AuthLevel string

// Auth levels, weakest first.
const (
	AuthNone     AuthLevel = "none"
	AuthBasic    AuthLevel = "basic"
	AuthSigner   AuthLevel = "signer"
	AuthAttested AuthLevel = "attested"
)

// authOrder is the fixed ordering used for access checks. Index
// position is the level's rank.
var authOrder = []AuthLevel{AuthNone, AuthBasic, AuthSigner, AuthAttested} //nolint:gochecknoglobals // ordering constant

// rank returns a level's position in the ordering, or -1 for an
// unknown level. Unknown levels fail every access check.
func rank(level AuthLevel) int {
	for i, l := range authOrder {
		if l == level {
			return i
		}
	}
	return -1
}

// CanAccessFeature reports whether current satisfies required:
// true iff rank(current) >= rank(required). An unknown current level
// never satisfies anything; an unknown required level is never
// satisfied.
func CanAccessFeature(current, required AuthLevel) bool {
	currentRank := rank(current)
	requiredRank := rank(required)
	if currentRank < 0 || requiredRank < 0 {
		return false
	}
	return currentRank >= requiredRank
}

// Feature names gated by auth level.
const (
	FeatureViewProfile = "view-profile"
	FeatureBreathwork  = "breathwork"
	FeatureSignContent = "sign-content"
	FeatureMintBadge   = "mint-badge"
	FeatureAttestation = "attestation"
)

// FeaturesFor derives the available feature set purely from the auth
// level. Levels are cumulative: each unlocks everything below it.
func FeaturesFor(level AuthLevel) []string {
	var features []string
	if CanAccessFeature(level, AuthBasic) {
		features = append(features, FeatureViewProfile, FeatureBreathwork)
	}
	if CanAccessFeature(level, AuthSigner) {
		features = append(features, FeatureSignContent, FeatureMintBadge)
	}
	if CanAccessFeature(level, AuthAttested) {
		features = append(features, FeatureAttestation)
	}
	return features
}
