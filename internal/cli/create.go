package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/catalog"
	"github.com/agentpack-labs/agentpack/internal/config"
	"github.com/agentpack-labs/agentpack/internal/interactive"
	"github.com/agentpack-labs/agentpack/internal/manifest"
	"github.com/agentpack-labs/agentpack/internal/scaffold"
)

var (
	createOutputDir   string
	createModel       string
	createRegion      string
	createDescription string
	createTemplate    string
	createInteractive bool
)

const (
	defaultModel  = "gemini-2.5-flash"
	defaultRegion = "us-central1"
)

func init() {
	createCmd.PersistentFlags().StringVar(&createOutputDir, "output-dir", "", "Output directory (default: ./<name>)")
	createCmd.PersistentFlags().StringVar(&createModel, "model", "", "Model ID for the generated manifest")
	createCmd.PersistentFlags().StringVar(&createRegion, "region", "", "Region for the generated manifest")
	createCmd.PersistentFlags().StringVar(&createDescription, "description", "", "Project description")
	createCmd.Flags().StringVar(&createTemplate, "template", "", "Scaffold from a catalog template path instead of a built-in set")
	createCmd.Flags().BoolVarP(&createInteractive, "interactive", "i", false, "Prompt for project settings")
	rootCmd.AddCommand(createCmd)

	for _, agentType := range manifest.ValidTypes {
		createCmd.AddCommand(newCreateTypeCmd(agentType))
	}
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Scaffold a new agent project",
	Long: `Create a new agent project from a built-in template set (chat, rag, live)
or from the remote template catalog.

Examples:
  agentpack create chat support-bot --model gemini-2.5-flash
  agentpack create rag docs-qa --region europe-west1
  agentpack create --template community/chat-pirate my-pirate
  agentpack create -i`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if createInteractive {
			return runCreateInteractive()
		}
		if createTemplate != "" {
			if len(args) != 1 {
				return fmt.Errorf("usage: %s create --template <catalog-path> <name>", rootCmd.Use)
			}
			return runCreateFromCatalog(createTemplate, args[0])
		}
		return fmt.Errorf("specify an agent type (%v), --template, or -i", manifest.ValidTypes)
	},
}

func newCreateTypeCmd(agentType string) *cobra.Command {
	return &cobra.Command{
		Use:   agentType + " <name>",
		Short: fmt.Sprintf("Scaffold a new %s agent project", agentType),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := manifest.ValidateName(name); err != nil {
				return err
			}
			data := scaffold.NewData(name, agentType, modelOrDefault(), regionOrDefault(), createDescription)
			result, err := scaffold.Generate(agentType, data, resolveOutputDir(name))
			if err != nil {
				return err
			}
			printScaffoldResult(result)
			return nil
		},
	}
}

func runCreateFromCatalog(templatePath, name string) error {
	if err := manifest.ValidateName(name); err != nil {
		return err
	}

	catalogDir := config.CatalogDir()
	if _, err := os.Stat(catalogDir); os.IsNotExist(err) {
		return fmt.Errorf("template catalog not found: run '%s catalog update' first", rootCmd.Use)
	}
	templateDir, err := catalog.TemplateDir(catalogDir, templatePath)
	if err != nil {
		return err
	}

	// Catalog templates carry their own type in the manifest; default the
	// template data to chat so derived fields still render.
	data := scaffold.NewData(name, manifest.TypeChat, modelOrDefault(), regionOrDefault(), createDescription)
	result, err := scaffold.GenerateFromDir(templateDir, data, resolveOutputDir(name))
	if err != nil {
		return err
	}
	printScaffoldResult(result)
	return nil
}

func runCreateInteractive() error {
	if !interactive.IsTerminal(os.Stdin) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	sel, err := interactive.Run(os.Stdin, os.Stdout, defaultModel, defaultRegion)
	if err != nil {
		return err
	}
	data := scaffold.NewData(sel.Name, sel.Type, sel.Model, sel.Region, sel.Description)
	result, err := scaffold.Generate(sel.Type, data, resolveOutputDir(sel.Name))
	if err != nil {
		return err
	}
	printScaffoldResult(result)
	return nil
}

func modelOrDefault() string {
	if createModel != "" {
		return createModel
	}
	config.Load()
	return config.GetOr(config.KeyModel, defaultModel)
}

func regionOrDefault() string {
	if createRegion != "" {
		return createRegion
	}
	config.Load()
	return config.GetOr(config.KeyRegion, defaultRegion)
}

func resolveOutputDir(name string) string {
	if createOutputDir != "" {
		return createOutputDir
	}
	return filepath.Join(".", name)
}

func printScaffoldResult(result *scaffold.Result) {
	fmt.Printf("Created %s\n", result.OutputDir)
	for _, f := range result.Files {
		fmt.Printf("  %s\n", f)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  cd %s\n", result.OutputDir)
	fmt.Printf("  %s deploy engine\n", rootCmd.Use)
}
