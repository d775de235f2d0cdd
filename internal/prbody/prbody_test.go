package prbody

import (
	"strings"
	"testing"
	"time"

	"github.com/missionctl/missionctl/internal/models"
)

func testPlan() *models.Plan {
	mergedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	return &models.Plan{
		ID: "p1", Name: "feature-x", IntegrationBranch: "mc/integration-p1",
		Jobs: []models.JobSpec{
			{Name: "b", Branch: "mc/b", Status: models.JobMerged, MergeOrder: 1, MergedAt: &mergedAt},
			{Name: "a", Branch: "mc/a", Status: models.JobMerged, MergeOrder: 0, MergedAt: &mergedAt},
			{Name: "c", Branch: "mc/c", Status: models.JobFailed, FailureReason: "tests failed"},
		},
	}
}

func TestRenderOrdersJobsByMergeOrder(t *testing.T) {
	body := Render(testPlan())
	idxA := strings.Index(body, "**a**")
	idxB := strings.Index(body, "**b**")
	if idxA == -1 || idxB == -1 || idxA > idxB {
		t.Fatalf("expected job a before job b in merge order, got:\n%s", body)
	}
}

func TestRenderListsFailedJobs(t *testing.T) {
	body := Render(testPlan())
	if !strings.Contains(body, "**c**: tests failed") {
		t.Fatalf("expected failed job c to be listed, got:\n%s", body)
	}
}

func TestRenderUsesPlanName(t *testing.T) {
	body := Render(testPlan())
	if !strings.Contains(body, "## feature-x") {
		t.Fatalf("expected plan name as title, got:\n%s", body)
	}
}

func TestPreviewProducesHTML(t *testing.T) {
	html, err := Preview(testPlan())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(html, "<h2>") || !strings.Contains(html, "<li>") {
		t.Fatalf("expected rendered HTML headings/list, got:\n%s", html)
	}
}

func TestPlanTitleFallsBackToID(t *testing.T) {
	plan := testPlan()
	plan.Name = ""
	body := Render(plan)
	if !strings.Contains(body, "## p1") {
		t.Fatalf("expected plan ID fallback title, got:\n%s", body)
	}
}
