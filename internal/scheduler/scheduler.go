// Package scheduler implements the DAG Scheduler (spec.md §4.5), grounded
// on the teacher's internal/executor/graph.go: Kahn's-algorithm topological
// sort plus DFS cycle detection with white/gray/black coloring, adapted
// from "compute static waves of a task list" to "compute the currently
// ready subset of a live plan under a parallelism cap".
package scheduler

import (
	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
)

// Validate checks a plan's JobSpecs for missing dependency names and
// dependency cycles (spec.md §4.5).
func Validate(plan *models.Plan) error {
	known := make(map[string]bool, len(plan.Jobs))
	for _, j := range plan.Jobs {
		known[j.Name] = true
	}

	for _, j := range plan.Jobs {
		for _, dep := range j.DependsOn {
			if !known[dep] {
				return merrors.New(merrors.Validation, "job "+j.Name+": depends on unknown job "+dep)
			}
		}
	}

	if hasCycle(plan.Jobs) {
		return merrors.New(merrors.Validation, "plan has a cyclic dependency")
	}
	return nil
}

// hasCycle runs DFS with white/gray/black coloring over the dependsOn
// graph, directly mirroring DependencyGraph.HasCycle.
func hasCycle(jobs []models.JobSpec) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	deps := make(map[string][]string, len(jobs))
	for _, j := range jobs {
		deps[j.Name] = j.DependsOn
	}

	colors := make(map[string]int, len(jobs))
	for _, j := range jobs {
		colors[j.Name] = white
	}

	var dfs func(string) bool
	dfs = func(name string) bool {
		colors[name] = gray
		for _, dep := range deps[name] {
			if colors[dep] == gray {
				return true
			}
			if colors[dep] == white && dfs(dep) {
				return true
			}
		}
		colors[name] = black
		return false
	}

	for _, j := range jobs {
		if colors[j.Name] == white {
			if dfs(j.Name) {
				return true
			}
		}
	}
	return false
}

// TopologicalSort returns jobs in an order consistent with dependsOn, using
// Kahn's algorithm with a declaration-order tie-break among jobs that
// become ready simultaneously. The Reconciler does not call it: it assigns
// mergeOrder in completion order.
func TopologicalSort(jobs []models.JobSpec) ([]models.JobSpec, error) {
	index := make(map[string]int, len(jobs))
	for i, j := range jobs {
		index[j.Name] = i
	}

	inDegree := make(map[string]int, len(jobs))
	dependents := make(map[string][]string, len(jobs))
	for _, j := range jobs {
		inDegree[j.Name] = len(j.DependsOn)
		for _, dep := range j.DependsOn {
			dependents[dep] = append(dependents[dep], j.Name)
		}
	}

	var ready []string
	for _, j := range jobs {
		if inDegree[j.Name] == 0 {
			ready = append(ready, j.Name)
		}
	}
	sortByDeclaration(ready, index)

	byName := make(map[string]models.JobSpec, len(jobs))
	for _, j := range jobs {
		byName[j.Name] = j
	}

	var sorted []models.JobSpec
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		sorted = append(sorted, byName[name])

		var newlyReady []string
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		sortByDeclaration(newlyReady, index)
		ready = append(ready, newlyReady...)
		sortByDeclaration(ready, index)
	}

	if len(sorted) != len(jobs) {
		return nil, merrors.New(merrors.Validation, "plan has a cyclic dependency")
	}
	return sorted, nil
}

func sortByDeclaration(names []string, index map[string]int) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && index[names[j-1]] > index[names[j]]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// ReadyJobs returns the subset of plan.Jobs eligible to launch now: status
// queued or waiting_deps, with every dependency merged, capped so that
// runningJobCount plus the returned count never exceeds maxParallel
// (spec.md §4.5, §8 property 2). Ties break in declaration order.
func ReadyJobs(plan *models.Plan, runningJobCount, maxParallel int) []models.JobSpec {
	budget := maxParallel - runningJobCount
	if budget <= 0 {
		return nil
	}

	statuses := make(map[string]models.JobStatus, len(plan.Jobs))
	for _, j := range plan.Jobs {
		statuses[j.Name] = j.Status
	}

	var ready []models.JobSpec
	for _, j := range plan.Jobs {
		if len(ready) >= budget {
			break
		}
		if j.Status != models.JobQueued && j.Status != models.JobWaitingDeps {
			continue
		}
		if allMerged(j.DependsOn, statuses) {
			ready = append(ready, j)
		}
	}
	return ready
}

func allMerged(names []string, statuses map[string]models.JobStatus) bool {
	for _, n := range names {
		if statuses[n] != models.JobMerged {
			return false
		}
	}
	return true
}
