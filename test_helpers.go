package gitver

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

// testRepoCreate initializes a git repository on disk. Fixtures are
// built with go-git but live on a real filesystem so the GitCLI
// adapter can query them.
func testRepoCreate(path string) (*git.Repository, error) {
	return git.PlainInit(path, false)
}

// testRepoCommit writes a file and commits it, returning the commit
// hash.
func testRepoCommit(repo *git.Repository, filename, content string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	err = writeFile(workTree.Filesystem, filename, content)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	_, err = workTree.Add(filename)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Commit "+filename, &git.CommitOptions{Author: testSignature})
}

// testRepoTagSequence makes one commit per tag and tags it, returning
// the commit hashes in order.
func testRepoTagSequence(repo *git.Repository, tags []string) ([]plumbing.Hash, error) {
	hashes := make([]plumbing.Hash, 0, len(tags))
	for _, tag := range tags {
		hash, err := testRepoCommit(repo, "file_"+tag+".txt", "Content for "+tag)
		if err != nil {
			return nil, err
		}

		_, err = repo.CreateTag(tag, hash, nil)
		if err != nil {
			return nil, err
		}

		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// testRepoCheckoutBranch creates a branch at the current HEAD and
// checks it out.
func testRepoCheckoutBranch(repo *git.Repository, name string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}

	return workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
}

// testRepoDetach checks out the given commit directly, leaving the
// repository with a detached HEAD.
func testRepoDetach(repo *git.Repository, hash plumbing.Hash) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}

	return workTree.Checkout(&git.CheckoutOptions{Hash: hash})
}

// testRepoBranchAt creates a branch reference at the given commit
// without checking it out.
func testRepoBranchAt(repo *git.Repository, name string, hash plumbing.Hash) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)
	return repo.Storer.SetReference(ref)
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
