package vc

import (
	"regexp"
	"strings"
)

// branchPrefix and integrationPrefix implement spec.md §4.3's naming policy:
// "branch naming uses mc/<sanitized-name> by default; integration branch
// mc/integration-<planId>".
const (
	branchPrefix      = "mc/"
	integrationPrefix = "mc/integration-"
)

var unsafeBranchChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SanitizeName maps an arbitrary job name to a string safe for use as a VC
// branch component: lowercase, non-alphanumeric runs collapsed to a single
// hyphen, leading/trailing hyphens trimmed.
func SanitizeName(name string) string {
	lower := strings.ToLower(name)
	sanitized := unsafeBranchChars.ReplaceAllString(lower, "-")
	sanitized = strings.Trim(sanitized, "-")
	if sanitized == "" {
		sanitized = "job"
	}
	return sanitized
}

// JobBranch returns the branch name a job is launched on.
func JobBranch(name string) string {
	return branchPrefix + SanitizeName(name)
}

// IntegrationBranch returns the integration branch name for a plan.
func IntegrationBranch(planID string) string {
	return integrationPrefix + planID
}
