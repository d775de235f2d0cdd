// Package prbody renders the pull request description published at the end
// of a completed Plan: one Markdown document assembled from job summaries
// and merge history, plus an HTML preview for `missionctl pr --preview`.
// Grounded on the teacher's internal/parser/markdown.go, which builds
// goldmark.New() once and walks its parsed AST; here the direction is
// reversed — goldmark renders a document this package composes, rather than
// parsing one a human wrote.
package prbody

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/missionctl/missionctl/internal/models"
)

// Render builds the Markdown PR body for a completed plan: a summary line,
// one bullet per merged job in merge order, and a note for any job that
// failed or was abandoned outside the merge set.
func Render(plan *models.Plan) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s\n\n", planTitle(plan))
	fmt.Fprintf(&sb, "%d job(s) merged onto `%s`.\n\n", countMerged(plan), plan.IntegrationBranch)

	sb.WriteString("### Merged jobs\n\n")
	for _, j := range mergedInOrder(plan) {
		fmt.Fprintf(&sb, "- **%s** (`%s`)", j.Name, j.Branch)
		if j.MergedAt != nil {
			fmt.Fprintf(&sb, " — merged %s", j.MergedAt.Format("2006-01-02 15:04 MST"))
		}
		sb.WriteString("\n")
	}

	if failed := failedJobs(plan); len(failed) > 0 {
		sb.WriteString("\n### Not merged\n\n")
		for _, j := range failed {
			fmt.Fprintf(&sb, "- **%s**: %s\n", j.Name, j.FailureReason)
		}
	}

	return sb.String()
}

// Preview renders the plan's PR body to HTML for display in a terminal or
// browser preview, using the same goldmark parser/renderer pair the teacher
// uses for structured document processing.
func Preview(plan *models.Plan) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Render(plan)), &buf); err != nil {
		return "", fmt.Errorf("render PR body preview: %w", err)
	}
	return buf.String(), nil
}

func planTitle(plan *models.Plan) string {
	if plan.Name != "" {
		return plan.Name
	}
	return plan.ID
}

func countMerged(plan *models.Plan) int {
	n := 0
	for _, j := range plan.Jobs {
		if j.Status == models.JobMerged {
			n++
		}
	}
	return n
}

// mergedInOrder returns merged jobs sorted by MergeOrder, the order they
// actually landed on the integration branch.
func mergedInOrder(plan *models.Plan) []models.JobSpec {
	var merged []models.JobSpec
	for _, j := range plan.Jobs {
		if j.Status == models.JobMerged {
			merged = append(merged, j)
		}
	}
	sort.Slice(merged, func(i, k int) bool { return merged[i].MergeOrder < merged[k].MergeOrder })
	return merged
}

func failedJobs(plan *models.Plan) []models.JobSpec {
	var out []models.JobSpec
	for _, j := range plan.Jobs {
		if j.Status == models.JobFailed || j.Status == models.JobNeedsRebase {
			out = append(out, j)
		}
	}
	return out
}
