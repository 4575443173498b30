// Package catalog manages the remote template catalog: cloning, updating,
// and freshness tracking of the shared template repository, plus resolving
// template paths for scaffolding.
package catalog

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agentpack-labs/agentpack/internal/branding"
	"github.com/agentpack-labs/agentpack/internal/config"
)

const (
	// freshnessFile is the name of the timestamp marker file.
	freshnessFile = ".catalog-updated"

	// DefaultMaxAge is the staleness threshold before update warnings.
	DefaultMaxAge = 7 * 24 * time.Hour

	// templatesSubdir is where template sets live inside the catalog repo.
	templatesSubdir = "templates"

	// tmpSuffix is appended to the target dir during atomic clone.
	tmpSuffix = ".tmp"
)

// RepoURL returns the catalog repository URL, checking (in order):
// 1. <PREFIX>_CATALOG_REPO_URL env var
// 2. config key "catalog_repo"
// 3. branding.CatalogRepoURL() (from branding.yaml)
func RepoURL() string {
	if v := os.Getenv(branding.EnvVar("CATALOG_REPO_URL")); v != "" {
		return v
	}
	if v := config.Get("catalog_repo"); v != "" {
		return v
	}
	return branding.CatalogRepoURL()
}

// Clone performs a shallow clone of the catalog into targetDir.
// It attempts a sparse checkout (git >= 2.25.0) to only fetch the templates/
// subdirectory, and falls back to a full shallow clone if sparse checkout is
// unavailable.
//
// The clone is atomic: it writes to a .tmp directory first, then renames
// on success. On failure the .tmp directory is cleaned up.
func Clone(targetDir string) error {
	if err := ensureGit(); err != nil {
		return err
	}

	repoURL := RepoURL()
	tmpDir := targetDir + tmpSuffix

	// Clean up any leftover tmp dir from a previous failed attempt.
	_ = os.RemoveAll(tmpDir)

	if err := os.MkdirAll(filepath.Dir(tmpDir), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	if err := trySparseClone(tmpDir, repoURL); err != nil {
		// Sparse clone failed; fall back to full shallow clone.
		_ = os.RemoveAll(tmpDir)
		if err := fullShallowClone(tmpDir, repoURL); err != nil {
			_ = os.RemoveAll(tmpDir)
			return fmt.Errorf("cloning catalog: %w", err)
		}
	}

	// Atomic rename.
	if err := os.RemoveAll(targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("removing existing catalog dir: %w", err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("finalizing catalog clone: %w", err)
	}

	WriteFreshnessMarker(targetDir)
	return nil
}

// Update pulls the latest changes in the catalog repo directory.
// If the catalog directory doesn't exist, it calls Clone instead.
func Update(catalogRepoDir string) error {
	if err := ensureGit(); err != nil {
		return err
	}

	gitDir := filepath.Join(catalogRepoDir, ".git")
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		return Clone(catalogRepoDir)
	}

	cmd := exec.Command("git", "pull", "--depth=1", "--rebase")
	cmd.Dir = catalogRepoDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pulling catalog updates: %w\n%s", err, strings.TrimSpace(string(output)))
	}

	WriteFreshnessMarker(catalogRepoDir)
	return nil
}

// TemplateDir resolves a catalog template path (e.g. "community/chat-pirate")
// to an absolute directory inside catalogRepoDir. The path must stay inside
// the catalog's templates tree and must exist.
func TemplateDir(catalogRepoDir, templatePath string) (string, error) {
	cleaned := filepath.Clean(templatePath)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid template path %q", templatePath)
	}

	dir := filepath.Join(catalogRepoDir, templatesSubdir, cleaned)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("template %q not found in catalog (try running the catalog update command)", templatePath)
	}
	if err != nil {
		return "", fmt.Errorf("reading catalog template: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("catalog template %q is not a directory", templatePath)
	}
	return dir, nil
}

// List returns the template paths available in the catalog, relative to the
// templates root, one per directory that contains an agent.yaml or
// agent.yaml.tmpl file.
func List(catalogRepoDir string) ([]string, error) {
	root := filepath.Join(catalogRepoDir, templatesSubdir)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var templates []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		for _, marker := range []string{"agent.yaml", "agent.yaml.tmpl"} {
			if _, err := os.Stat(filepath.Join(path, marker)); err == nil {
				rel, relErr := filepath.Rel(root, path)
				if relErr != nil {
					return relErr
				}
				templates = append(templates, filepath.ToSlash(rel))
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning catalog templates: %w", err)
	}
	return templates, nil
}

// WriteFreshnessMarker writes the current Unix timestamp to the freshness file.
func WriteFreshnessMarker(catalogRepoDir string) {
	markerPath := filepath.Join(catalogRepoDir, freshnessFile)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	_ = os.WriteFile(markerPath, []byte(ts), 0o644)
}

// ReadFreshnessMarker reads the timestamp from the freshness file.
// Returns zero time if the file doesn't exist or can't be parsed.
func ReadFreshnessMarker(catalogRepoDir string) time.Time {
	markerPath := filepath.Join(catalogRepoDir, freshnessFile)
	data, err := os.ReadFile(markerPath)
	if err != nil {
		return time.Time{}
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// IsStale returns true if the catalog was last updated more than maxAge ago,
// or if the freshness marker doesn't exist.
func IsStale(catalogRepoDir string, maxAge time.Duration) bool {
	lastUpdated := ReadFreshnessMarker(catalogRepoDir)
	if lastUpdated.IsZero() {
		return true
	}
	return time.Since(lastUpdated) > maxAge
}

// trySparseClone attempts a sparse shallow clone that only checks out templates/.
func trySparseClone(targetDir, repoURL string) error {
	cmd := exec.Command("git", "clone", "--depth=1", "--sparse", "--no-checkout", repoURL, targetDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sparse clone: %w\n%s", err, strings.TrimSpace(string(output)))
	}

	cmd = exec.Command("git", "sparse-checkout", "set", templatesSubdir+"/")
	cmd.Dir = targetDir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sparse-checkout set: %w\n%s", err, strings.TrimSpace(string(output)))
	}

	cmd = exec.Command("git", "checkout")
	cmd.Dir = targetDir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("checkout: %w\n%s", err, strings.TrimSpace(string(output)))
	}

	return nil
}

// fullShallowClone performs a regular --depth=1 clone (fallback for older git).
func fullShallowClone(targetDir, repoURL string) error {
	cmd := exec.Command("git", "clone", "--depth=1", repoURL, targetDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("shallow clone: %w\n%s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ensureGit checks that git is available on PATH.
func ensureGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is required but not found in PATH")
	}
	return nil
}
