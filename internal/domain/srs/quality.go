package srs

// convertToQualityScore maps the two-button review UI onto the SM-2 quality
// scale. A nil response time counts as slow.
//
// Every "hard" answer maps to a lapse-triggering quality, so a hard tap
// resets the card regardless of its history.
func convertToQualityScore(isEasy bool, responseTimeMs *int, params *Params) int {
	if !isEasy {
		return params.HardQuality
	}
	if responseTimeMs != nil && *responseTimeMs < params.FastResponseThresholdMs {
		return params.EasyFastQuality
	}
	return params.EasySlowQuality
}
