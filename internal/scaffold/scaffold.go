package scaffold

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/agentpack-labs/agentpack/internal/manifest"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Data holds all template variables available to project templates.
type Data struct {
	Name        string // e.g., "support-bot"
	Type        string // "chat", "rag", or "live"
	Model       string // e.g., "gemini-2.0-flash"
	Region      string // e.g., "us-central1"
	Description string // Human-readable description
	Version     string // Semver, e.g., "0.1.0"
	DisplayName string // Derived: "Support Bot"
	EnvPrefix   string // Derived: "SUPPORT_BOT"
	Year        int    // Current year
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

var titleCaser = cases.Title(language.English)

// NewData creates a Data with derived fields populated.
func NewData(name, agentType, model, region, description string) *Data {
	d := &Data{
		Name:    name,
		Type:    agentType,
		Model:   model,
		Region:  region,
		Version: "0.1.0",
		Year:    time.Now().Year(),
	}

	d.Description = description
	if d.Description == "" {
		d.Description = fmt.Sprintf("AgentPack %s agent: %s", agentType, name)
	}

	d.DisplayName = titleCaser.String(strings.ReplaceAll(name, "-", " "))
	d.EnvPrefix = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))

	return d
}

// Generate creates a new agent project from the built-in template set for
// the given agent type.
func Generate(agentType string, data *Data, outputDir string) (*Result, error) {
	setDir := filepath.Join("templates", agentType)
	sub, err := fs.Sub(templateFS, setDir)
	if err != nil {
		return nil, fmt.Errorf("template set %q not found: %w", agentType, err)
	}
	return render(sub, agentType, data, outputDir)
}

// GenerateFromDir creates a new agent project from an on-disk template set,
// such as a directory inside the remote template catalog.
func GenerateFromDir(templateDir string, data *Data, outputDir string) (*Result, error) {
	info, err := os.Stat(templateDir)
	if err != nil {
		return nil, fmt.Errorf("template directory %s: %w", templateDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %s is not a directory", templateDir)
	}
	return render(os.DirFS(templateDir), data.Type, data, outputDir)
}

// render executes every template in fsys into outputDir.
func render(fsys fs.FS, setName string, data *Data, outputDir string) (*Result, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading template set %q: %w", setName, err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Check for existing files to prevent accidental overwrites.
	existingEntries, err := os.ReadDir(outputDir)
	if err == nil && len(existingEntries) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{
		OutputDir: outputDir,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		tmplBytes, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", entry.Name(), err)
		}

		// Strip .tmpl extension for the output filename.
		outName := strings.TrimSuffix(entry.Name(), ".tmpl")
		outPath := filepath.Join(outputDir, outName)

		// Files without the .tmpl extension are copied verbatim.
		if outName == entry.Name() {
			if err := os.WriteFile(outPath, tmplBytes, 0644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", outPath, err)
			}
			result.Files = append(result.Files, outName)
			continue
		}

		tmpl, err := template.New(entry.Name()).Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}

		result.Files = append(result.Files, outName)
	}

	// Validate the generated manifest against the JSON Schema.
	manifestFile := filepath.Join(outputDir, "agent.yaml")
	if _, err := os.Stat(manifestFile); err == nil {
		valResult, valErr := manifest.ValidateFile(manifestFile)
		if valErr != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Could not validate manifest: %v", valErr))
		} else if !valResult.Valid {
			for _, issue := range valResult.Issues {
				msg := issue.Message
				if issue.Path != "" {
					msg = issue.Path + ": " + msg
				}
				result.Warnings = append(result.Warnings, msg)
			}
		}
	}

	return result, nil
}
