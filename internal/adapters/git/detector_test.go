package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepo(t *testing.T) (string, *git.Repository, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init git repo: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("focus"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := worktree.Add("notes.txt"); err != nil {
		t.Fatalf("Failed to add file: %v", err)
	}

	commit, err := worktree.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
		},
	})
	if err != nil {
		t.Fatalf("Failed to create commit: %v", err)
	}
	return dir, repo, commit
}

func TestDetector_CurrentBranch(t *testing.T) {
	dir, repo, _ := initRepo(t)

	worktree, _ := repo.Worktree()
	err := worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature/fade-in"),
		Create: true,
	})
	if err != nil {
		t.Fatalf("Failed to create branch: %v", err)
	}

	sub := filepath.Join(dir, "pkg", "deep")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	d := NewDetector()
	for _, wd := range []string{dir, sub} {
		branch, err := d.CurrentBranch(context.Background(), wd)
		if err != nil {
			t.Fatalf("CurrentBranch(%s) error = %v", wd, err)
		}
		if branch != "feature/fade-in" {
			t.Errorf("CurrentBranch(%s) = %q, want feature/fade-in", wd, branch)
		}
	}
}

func TestDetector_DetachedHead(t *testing.T) {
	dir, repo, commit := initRepo(t)

	worktree, _ := repo.Worktree()
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: commit}); err != nil {
		t.Fatalf("Failed to detach HEAD: %v", err)
	}

	_, err := NewDetector().CurrentBranch(context.Background(), dir)
	if !errors.Is(err, ErrDetachedHead) {
		t.Errorf("CurrentBranch() error = %v, want ErrDetachedHead", err)
	}
}

func TestDetector_NotARepository(t *testing.T) {
	_, err := NewDetector().CurrentBranch(context.Background(), t.TempDir())
	if err == nil {
		t.Error("CurrentBranch() should fail outside a repository")
	}
}
