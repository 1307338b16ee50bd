// Package scaffold creates and validates Reachy Mini app workspaces.
//
// Apps are Python packages built on the reachy_mini SDK. The scaffold
// either renders the embedded starter template or forks the full
// conversation app, renames everything to the new app name, and leaves a
// workspace ready for `app dev` and publishing.
package scaffold

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

//go:embed all:templates
var templatesFS embed.FS

// Template names accepted by Create.
const (
	TemplateSimple       = "simple"
	TemplateConversation = "conversation"
)

// templateAppName is the placeholder package name used inside the
// embedded templates. Rendering renames it to the real app name.
const templateAppName = "example_app"

// namePattern is the accepted app name shape: a Python package name in
// snake_case.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reservedNames cannot be used as app names.
var reservedNames = map[string]bool{
	"reachy_mini": true,
	"app":         true,
	"test":        true,
}

// ValidateName checks that name is usable as an app package name.
//
// Parameters:
//   - name: The proposed app name
//
// Returns:
//   - error: Nil when valid, a descriptive error otherwise
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("app name is required")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid app name %q: use snake_case starting with a letter (e.g. my_dance_app)", name)
	}
	if reservedNames[name] {
		return fmt.Errorf("app name %q is reserved", name)
	}
	return nil
}

// ToPascalCase converts a snake_case app name to the PascalCase class
// name used for the app's entry class.
//
// Parameters:
//   - name: The snake_case name
//
// Returns:
//   - string: The PascalCase form (my_dance_app -> MyDanceApp)
func ToPascalCase(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Options configures app creation.
type Options struct {
	// Name is the app package name (snake_case).
	Name string

	// Template is simple or conversation.
	Template string

	// Dir is the parent directory to create the app in.
	Dir string
}

// Result describes a created app workspace.
type Result struct {
	// Path is the app workspace root.
	Path string

	// ClassName is the app's PascalCase entry class.
	ClassName string

	// Template is the template that was used.
	Template string
}

// Create creates a new app workspace from a template.
// Refuses to touch a directory that already exists.
//
// Parameters:
//   - opts: The creation options
//
// Returns:
//   - *Result: The created workspace
//   - error: Any error that occurred
func Create(opts Options) (*Result, error) {
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}

	switch opts.Template {
	case "", TemplateSimple:
		opts.Template = TemplateSimple
	case TemplateConversation:
	default:
		return nil, fmt.Errorf("unknown template %q: choose %s or %s", opts.Template, TemplateSimple, TemplateConversation)
	}

	if opts.Dir == "" {
		opts.Dir = "."
	}
	target := filepath.Join(opts.Dir, opts.Name)
	if _, err := os.Stat(target); err == nil {
		return nil, fmt.Errorf("directory %s already exists", target)
	}

	if opts.Template == TemplateConversation {
		return fork(opts, target)
	}

	if err := renderEmbedded(filepath.Join("templates", TemplateSimple), target); err != nil {
		os.RemoveAll(target)
		return nil, err
	}
	if err := RenameProject(target, templateAppName, opts.Name); err != nil {
		os.RemoveAll(target)
		return nil, err
	}

	// Publishing pushes the workspace with git, so the repo is created
	// up front. A missing git is not fatal for the workspace itself.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := runGit(ctx, target, "init"); err != nil {
		if !strings.Contains(err.Error(), "executable file not found") {
			os.RemoveAll(target)
			return nil, fmt.Errorf("failed to init repository: %w", err)
		}
	}

	return &Result{
		Path:      target,
		ClassName: ToPascalCase(opts.Name),
		Template:  opts.Template,
	}, nil
}

// renderEmbedded copies an embedded template tree to disk.
func renderEmbedded(root, target string) error {
	return fs.WalkDir(templatesFS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(target, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		data, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}
		return os.WriteFile(dest, data, 0o644)
	})
}

// RenameProject renames a Python package project in place: directory
// names, file names, and file content all move from oldName to newName.
// Content matching uses word boundaries so substrings inside longer
// identifiers survive, and the PascalCase class name is renamed alongside.
//
// Parameters:
//   - root: The project root
//   - oldName: The current package name
//   - newName: The new package name
//
// Returns:
//   - error: Any error that occurred
func RenameProject(root, oldName, newName string) error {
	namePat := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
	classPat := regexp.MustCompile(`\b` + regexp.QuoteMeta(ToPascalCase(oldName)) + `\b`)
	// pyproject dist names use dashes.
	dashPat := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ReplaceAll(oldName, "_", "-")) + `\b`)

	newClass := ToPascalCase(newName)
	newDash := strings.ReplaceAll(newName, "_", "-")

	// Rewrite file contents first, while paths are still stable.
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if !isTextFile(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		updated := namePat.ReplaceAll(data, []byte(newName))
		updated = classPat.ReplaceAll(updated, []byte(newClass))
		updated = dashPat.ReplaceAll(updated, []byte(newDash))
		if string(updated) == string(data) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(path, updated, info.Mode().Perm())
	})
	if err != nil {
		return fmt.Errorf("failed to rewrite project content: %w", err)
	}

	// Then rename paths, deepest first so parents stay valid.
	var renames []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return fs.SkipDir
		}
		if strings.Contains(d.Name(), oldName) {
			renames = append(renames, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan project paths: %w", err)
	}

	for i := len(renames) - 1; i >= 0; i-- {
		path := renames[i]
		newBase := strings.ReplaceAll(filepath.Base(path), oldName, newName)
		if err := os.Rename(path, filepath.Join(filepath.Dir(path), newBase)); err != nil {
			return fmt.Errorf("failed to rename %s: %w", path, err)
		}
	}

	return nil
}

// textExtensions are file types content renaming touches.
var textExtensions = map[string]bool{
	".py": true, ".toml": true, ".md": true, ".txt": true, ".cfg": true,
	".ini": true, ".yaml": true, ".yml": true, ".json": true, ".html": true,
	".js": true, ".css": true,
}

func isTextFile(path string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}
