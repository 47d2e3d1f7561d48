// Package git reads source provenance (HEAD commit, branch and worktree state) of the
// repository containing the site sources so it can be recorded in the build manifest.
package git
