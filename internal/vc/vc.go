package vc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/missionctl/missionctl/internal/lock"
	"github.com/missionctl/missionctl/internal/merrors"
)

// Result is the outcome of a single VC command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// PostCreateHooks describes the worktree bootstrap steps run, in order,
// immediately after a worktree is created: symlink shared dirs in, copy
// files in, then run commands. A command failure aborts worktree creation
// and surfaces the command's stderr (spec.md §4.3).
type PostCreateHooks struct {
	SymlinkDirs []string
	CopyFiles   []string
	Commands    []string
}

// WorktreeInfo describes one entry from `git worktree list`.
type WorktreeInfo struct {
	Path   string
	Branch string
	Head   string
	IsMain bool
}

// Adapter is the VC Adapter (spec.md §4.3). Every method routes through Mutex
// so VC operations are serialized with state mutations and with each other,
// per spec.md §4.2 and §5.
type Adapter struct {
	Mutex   *lock.Mutex
	Runner  CommandRunner
	RepoRoot string
}

// New creates an Adapter for repoRoot using an ExecCommandRunner.
func New(mu *lock.Mutex, repoRoot string) *Adapter {
	return &Adapter{Mutex: mu, Runner: &ExecCommandRunner{}, RepoRoot: repoRoot}
}

// RunVC executes a raw VC command under the serialization mutex.
func (a *Adapter) RunVC(ctx context.Context, cwd string, args ...string) (Result, error) {
	return lock.WithLock(ctx, a.Mutex, func() (Result, error) {
		return a.runUnlocked(ctx, cwd, args...)
	})
}

func (a *Adapter) runUnlocked(ctx context.Context, cwd string, args ...string) (Result, error) {
	stdout, stderr, code, err := a.Runner.Run(ctx, cwd, args...)
	res := Result{Stdout: stdout, Stderr: stderr, ExitCode: code}
	if err != nil {
		return res, merrors.Wrap(merrors.AdapterError, fmt.Sprintf("vc %v", args), err)
	}
	if code != 0 {
		return res, merrors.New(merrors.AdapterError, fmt.Sprintf("vc %v: exit %d: %s", args, code, strings.TrimSpace(stderr)))
	}
	return res, nil
}

// CreateWorktree creates a new worktree for branch off RepoRoot's current
// HEAD and runs its post-create hooks. Returns the worktree path.
func (a *Adapter) CreateWorktree(ctx context.Context, branch string, hooks PostCreateHooks) (string, error) {
	return lock.WithLock(ctx, a.Mutex, func() (string, error) {
		path := filepath.Join(filepath.Dir(a.RepoRoot), ".missionctl-worktrees", SanitizeName(branch))
		if _, err := a.runUnlocked(ctx, a.RepoRoot, "worktree", "add", "-b", branch, path); err != nil {
			if _, err2 := a.runUnlocked(ctx, a.RepoRoot, "worktree", "add", path, branch); err2 != nil {
				return "", err
			}
		}

		if err := a.runPostCreate(ctx, path, hooks); err != nil {
			_, _ = a.runUnlocked(ctx, a.RepoRoot, "worktree", "remove", "--force", path)
			return "", err
		}
		return path, nil
	})
}

func (a *Adapter) runPostCreate(ctx context.Context, worktreePath string, hooks PostCreateHooks) error {
	for _, dir := range hooks.SymlinkDirs {
		target := filepath.Join(a.RepoRoot, dir)
		link := filepath.Join(worktreePath, dir)
		if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
			return merrors.Wrap(merrors.AdapterError, "symlink post-create hook", err)
		}
		if err := os.Symlink(target, link); err != nil {
			return merrors.Wrap(merrors.AdapterError, "symlink post-create hook", err)
		}
	}
	for _, file := range hooks.CopyFiles {
		src := filepath.Join(a.RepoRoot, file)
		dst := filepath.Join(worktreePath, file)
		data, err := os.ReadFile(src)
		if err != nil {
			return merrors.Wrap(merrors.AdapterError, "copy post-create hook", err)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return merrors.Wrap(merrors.AdapterError, "copy post-create hook", err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return merrors.Wrap(merrors.AdapterError, "copy post-create hook", err)
		}
	}
	shell := &ExecCommandRunner{Bin: "sh"}
	for _, command := range hooks.Commands {
		_, stderr, code, err := shell.Run(ctx, worktreePath, "-c", command)
		if err != nil {
			return merrors.Wrap(merrors.AdapterError, fmt.Sprintf("post-create command %q", command), err)
		}
		if code != 0 {
			return merrors.New(merrors.AdapterError, fmt.Sprintf("post-create command %q: exit %d: %s", command, code, strings.TrimSpace(stderr)))
		}
	}
	return nil
}

// RemoveWorktree removes the worktree at path. Idempotent: removing an
// already-absent worktree is not an error (spec.md §4.10 cleanup contract).
func (a *Adapter) RemoveWorktree(ctx context.Context, path string, force bool) error {
	return lock.WithLockErr(ctx, a.Mutex, func() error {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
		args := []string{"worktree", "remove"}
		if force {
			args = append(args, "--force")
		}
		args = append(args, path)
		_, err := a.runUnlocked(ctx, a.RepoRoot, args...)
		return err
	})
}

// ListWorktrees returns every worktree known to the repository.
func (a *Adapter) ListWorktrees(ctx context.Context) ([]WorktreeInfo, error) {
	return lock.WithLock(ctx, a.Mutex, func() ([]WorktreeInfo, error) {
		res, err := a.runUnlocked(ctx, a.RepoRoot, "worktree", "list", "--porcelain")
		if err != nil {
			return nil, err
		}
		return parseWorktreeList(res.Stdout), nil
	})
}

func parseWorktreeList(porcelain string) []WorktreeInfo {
	var trees []WorktreeInfo
	var cur *WorktreeInfo
	for _, line := range strings.Split(porcelain, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur != nil {
				trees = append(trees, *cur)
			}
			cur = &WorktreeInfo{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "HEAD "):
			if cur != nil {
				cur.Head = strings.TrimPrefix(line, "HEAD ")
			}
		case strings.HasPrefix(line, "branch "):
			if cur != nil {
				cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
			}
		case line == "bare":
			if cur != nil {
				cur.IsMain = true
			}
		}
	}
	if cur != nil {
		trees = append(trees, *cur)
	}
	if len(trees) > 0 {
		trees[0].IsMain = true
	}
	return trees
}

// CurrentBranch reports the checked-out branch at path.
func (a *Adapter) CurrentBranch(ctx context.Context, path string) (string, error) {
	return lock.WithLock(ctx, a.Mutex, func() (string, error) {
		res, err := a.runUnlocked(ctx, path, "branch", "--show-current")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(res.Stdout), nil
	})
}

// Status reports porcelain status output for path; empty string means clean.
func (a *Adapter) Status(ctx context.Context, path string) (string, error) {
	return lock.WithLock(ctx, a.Mutex, func() (string, error) {
		res, err := a.runUnlocked(ctx, path, "status", "--porcelain")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(res.Stdout), nil
	})
}

// IsClean reports whether path has no uncommitted changes.
func (a *Adapter) IsClean(ctx context.Context, path string) (bool, error) {
	status, err := a.Status(ctx, path)
	if err != nil {
		return false, err
	}
	return status == "", nil
}

// AheadBehind reports the ahead/behind commit counts of path's HEAD relative
// to its upstream.
func (a *Adapter) AheadBehind(ctx context.Context, path string) (ahead int, behind int, err error) {
	_, err = lock.WithLock(ctx, a.Mutex, func() (struct{}, error) {
		res, runErr := a.runUnlocked(ctx, path, "rev-list", "--left-right", "--count", "HEAD...@{u}")
		if runErr != nil {
			return struct{}{}, runErr
		}
		fields := strings.Fields(res.Stdout)
		if len(fields) != 2 {
			return struct{}{}, merrors.New(merrors.AdapterError, "unexpected rev-list output: "+res.Stdout)
		}
		ahead, _ = strconv.Atoi(fields[0])
		behind, _ = strconv.Atoi(fields[1])
		return struct{}{}, nil
	})
	return ahead, behind, err
}

// DefaultBranch reports the repository's default branch (origin/HEAD).
func (a *Adapter) DefaultBranch(ctx context.Context) (string, error) {
	return lock.WithLock(ctx, a.Mutex, func() (string, error) {
		res, err := a.runUnlocked(ctx, a.RepoRoot, "symbolic-ref", "refs/remotes/origin/HEAD")
		if err != nil {
			res2, err2 := a.runUnlocked(ctx, a.RepoRoot, "branch", "--show-current")
			if err2 != nil {
				return "", err
			}
			return strings.TrimSpace(res2.Stdout), nil
		}
		ref := strings.TrimSpace(res.Stdout)
		return strings.TrimPrefix(ref, "refs/remotes/origin/"), nil
	})
}

// Rebase rebases the branch checked out at path onto target. On conflict it
// aborts the rebase and returns the parsed conflict file list.
func (a *Adapter) Rebase(ctx context.Context, path, target string) (conflicted bool, files []string, err error) {
	_, err = lock.WithLock(ctx, a.Mutex, func() (struct{}, error) {
		res, runErr := a.runUnlocked(ctx, path, "rebase", target)
		if runErr == nil {
			return struct{}{}, nil
		}
		conflicted = true
		files = ParseConflicts(res.Stderr)
		_, _ = a.runUnlocked(ctx, path, "rebase", "--abort")
		return struct{}{}, nil
	})
	return conflicted, files, err
}

// Merge fast-forward merges branch into the tree checked out at path. On
// conflict it aborts the merge and returns the parsed conflict file list.
func (a *Adapter) Merge(ctx context.Context, path, branch string) (conflicted bool, files []string, err error) {
	_, err = lock.WithLock(ctx, a.Mutex, func() (struct{}, error) {
		res, runErr := a.runUnlocked(ctx, path, "merge", "--ff-only", branch)
		if runErr == nil {
			return struct{}{}, nil
		}
		conflicted = true
		files = ParseConflicts(res.Stderr)
		_, _ = a.runUnlocked(ctx, path, "merge", "--abort")
		return struct{}{}, nil
	})
	return conflicted, files, err
}

// Abort aborts an in-progress rebase or merge at path. kind must be
// "rebase" or "merge".
func (a *Adapter) Abort(ctx context.Context, path, kind string) error {
	return lock.WithLockErr(ctx, a.Mutex, func() error {
		_, err := a.runUnlocked(ctx, path, kind, "--abort")
		return err
	})
}

// ResetHard resets path's HEAD to rev, discarding the prior tip. Used by the
// Merge Train to revert a merge after a test failure (spec.md §4.6).
func (a *Adapter) ResetHard(ctx context.Context, path, rev string) error {
	return lock.WithLockErr(ctx, a.Mutex, func() error {
		_, err := a.runUnlocked(ctx, path, "reset", "--hard", rev)
		return err
	})
}

// HeadRev reports the commit hash at HEAD of path.
func (a *Adapter) HeadRev(ctx context.Context, path string) (string, error) {
	return lock.WithLock(ctx, a.Mutex, func() (string, error) {
		res, err := a.runUnlocked(ctx, path, "rev-parse", "HEAD")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(res.Stdout), nil
	})
}

// CreateIntegrationBranch creates the plan-scoped integration branch from
// baseCommit and a worktree for it, running hooks the same as any job
// worktree.
func (a *Adapter) CreateIntegrationBranch(ctx context.Context, planID, baseCommit string, hooks PostCreateHooks) (branch string, worktreePath string, err error) {
	branch = IntegrationBranch(planID)
	_, err = lock.WithLock(ctx, a.Mutex, func() (struct{}, error) {
		if _, runErr := a.runUnlocked(ctx, a.RepoRoot, "branch", branch, baseCommit); runErr != nil {
			return struct{}{}, runErr
		}
		return struct{}{}, nil
	})
	if err != nil {
		return "", "", err
	}

	worktreePath, err = a.CreateWorktree(ctx, branch, hooks)
	if err != nil {
		return "", "", err
	}
	return branch, worktreePath, nil
}

// DeleteIntegrationBranch removes the plan's integration worktree and branch.
func (a *Adapter) DeleteIntegrationBranch(ctx context.Context, planID, worktreePath string) error {
	if worktreePath != "" {
		if err := a.RemoveWorktree(ctx, worktreePath, true); err != nil {
			return err
		}
	}
	return lock.WithLockErr(ctx, a.Mutex, func() error {
		_, err := a.runUnlocked(ctx, a.RepoRoot, "branch", "-D", IntegrationBranch(planID))
		return err
	})
}

// Diff reports the unstaged+staged diff of path against HEAD.
func (a *Adapter) Diff(ctx context.Context, path string) (string, error) {
	return lock.WithLock(ctx, a.Mutex, func() (string, error) {
		res, err := a.runUnlocked(ctx, path, "diff", "HEAD")
		if err != nil {
			return "", err
		}
		return res.Stdout, nil
	})
}

// DeleteBranch deletes branch from RepoRoot. Idempotent: deleting an
// already-absent branch is not an error (spec.md §4.10 cleanup contract).
func (a *Adapter) DeleteBranch(ctx context.Context, branch string) error {
	return lock.WithLockErr(ctx, a.Mutex, func() error {
		res, err := a.runUnlocked(ctx, a.RepoRoot, "branch", "-D", branch)
		if err != nil && strings.Contains(res.Stderr, "not found") {
			return nil
		}
		return err
	})
}

// RefreshIntegrationFromMain rebases the integration worktree onto the
// repository's default branch, reporting conflicts rather than resolving
// them.
func (a *Adapter) RefreshIntegrationFromMain(ctx context.Context, worktreePath string) (success bool, conflicts []string, err error) {
	base, err := a.DefaultBranch(ctx)
	if err != nil {
		return false, nil, err
	}
	conflicted, files, err := a.Rebase(ctx, worktreePath, base)
	if err != nil {
		return false, nil, err
	}
	return !conflicted, files, nil
}
