package models

import "time"

// OutcomeKind tags the variant held by a MergeOutcome.
type OutcomeKind string

const (
	OutcomeOK          OutcomeKind = "ok"
	OutcomeConflict    OutcomeKind = "conflict"
	OutcomeTestFailure OutcomeKind = "testFailure"
)

// MergeOutcome is the tagged-variant result of processing one job through
// the Merge Train (spec.md §4.6). Exactly one payload is populated,
// according to Kind.
type MergeOutcome struct {
	Kind OutcomeKind

	// Populated when Kind == OutcomeOK.
	MergedAt   time.Time
	TestReport string

	// Populated when Kind == OutcomeConflict.
	ConflictFiles []string

	// Populated when Kind == OutcomeTestFailure.
	TestCommand string
	TestOutput  string
}

// OK constructs a successful MergeOutcome.
func OK(mergedAt time.Time, testReport string) MergeOutcome {
	return MergeOutcome{Kind: OutcomeOK, MergedAt: mergedAt, TestReport: testReport}
}

// ConflictOutcome constructs a conflict MergeOutcome.
func ConflictOutcome(files []string) MergeOutcome {
	return MergeOutcome{Kind: OutcomeConflict, ConflictFiles: files}
}

// TestFailureOutcome constructs a test-failure MergeOutcome.
func TestFailureOutcome(command, output string) MergeOutcome {
	return MergeOutcome{Kind: OutcomeTestFailure, TestCommand: command, TestOutput: output}
}
