package types

import "strings"

// Platform is an external commerce platform whose product ids can be attached to a store
type Platform string

const (
	PlatformHotmart    Platform = "hotmart"
	PlatformKiwify     Platform = "kiwify"
	PlatformEduzz      Platform = "eduzz"
	PlatformBraip      Platform = "braip"
	PlatformMonetizze  Platform = "monetizze"
	PlatformCartPanda  Platform = "cart_panda"
	PlatformPerfectPay Platform = "perfect_pay"
)

// Platforms lists every supported platform
var Platforms = []Platform{
	PlatformHotmart,
	PlatformKiwify,
	PlatformEduzz,
	PlatformBraip,
	PlatformMonetizze,
	PlatformCartPanda,
	PlatformPerfectPay,
}

// ProductStatusPendingVerification marks products that could only be checked structurally
const ProductStatusPendingVerification = "pending_verification"

// ParsePlatform normalizes user input such as "Cart Panda" or "cartpanda" into a Platform
func ParsePlatform(raw string) (Platform, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	compact := strings.ReplaceAll(normalized, "_", "")
	for _, p := range Platforms {
		if string(p) == normalized || strings.ReplaceAll(string(p), "_", "") == compact {
			return p, true
		}
	}
	return "", false
}
