// Package checks holds the two environment-dependent collaborators of the
// scorer: the compile check and the stub scan. Both are small interfaces so
// the scoring rules stay pure functions and tests can inject fixed answers.
package checks

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/mod/modfile"
)

// CompileChecker reports whether the project under its root compiles.
type CompileChecker interface {
	Compiles(ctx context.Context) bool
}

// DescriptorChecker selects a compile command by which build descriptor is
// present in the project root. With no recognized descriptor the project is
// assumed to compile. A failing or missing compile command reports false.
type DescriptorChecker struct {
	root    string
	timeout time.Duration
}

// NewDescriptorChecker returns a checker rooted at the given project dir.
func NewDescriptorChecker(root string, timeout time.Duration) *DescriptorChecker {
	if root == "" {
		root = "."
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &DescriptorChecker{root: root, timeout: timeout}
}

// Compiles runs the language-specific compile/typecheck command and reports
// its exit status.
func (c *DescriptorChecker) Compiles(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch {
	case c.hasFile("go.mod"):
		return c.run(ctx, "go", "build", "./...")
	case c.hasFile("package.json"):
		return c.run(ctx, "npm", "run", "typecheck")
	case c.hasFile("Cargo.toml"):
		return c.run(ctx, "cargo", "check")
	}

	// No recognized build descriptor: not a failure.
	return true
}

// Descriptor names the build descriptor the checker would act on, including
// the Go module path when go.mod parses. Empty when none is present.
func (c *DescriptorChecker) Descriptor() string {
	switch {
	case c.hasFile("go.mod"):
		data, err := os.ReadFile(filepath.Join(c.root, "go.mod"))
		if err == nil {
			if path := modfile.ModulePath(data); path != "" {
				return "go.mod (module " + path + ")"
			}
		}
		return "go.mod"
	case c.hasFile("package.json"):
		return "package.json"
	case c.hasFile("Cargo.toml"):
		return "Cargo.toml"
	}
	return ""
}

func (c *DescriptorChecker) hasFile(name string) bool {
	_, err := os.Stat(filepath.Join(c.root, name))
	return err == nil
}

func (c *DescriptorChecker) run(ctx context.Context, name string, args ...string) bool {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.root
	return cmd.Run() == nil
}

// StaticCompile is a CompileChecker with a fixed answer, for tests and for
// callers that already know the compile state.
type StaticCompile bool

// Compiles returns the fixed answer.
func (s StaticCompile) Compiles(context.Context) bool { return bool(s) }
