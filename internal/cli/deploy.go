package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/engine"
	"github.com/agentpack-labs/agentpack/internal/gcloud"
	"github.com/agentpack-labs/agentpack/internal/manifest"
)

var (
	deployDir     string
	deployProject string
	deployRegion  string
	deployDryRun  bool
	deployWait    time.Duration
)

func init() {
	deployCmd.PersistentFlags().StringVar(&deployDir, "dir", "", "Project directory (default: current directory)")
	deployCmd.PersistentFlags().StringVar(&deployProject, "project", "", "Cloud project ID")
	deployCmd.PersistentFlags().StringVar(&deployRegion, "region", "", "Deploy region")
	deployEngineCmd.Flags().DurationVar(&deployWait, "wait", 10*time.Minute, "How long to wait for the deploy operation")
	deployRunCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Print the deploy command without running it")
	deployCmd.AddCommand(deployEngineCmd)
	deployCmd.AddCommand(deployRunCmd)
	rootCmd.AddCommand(deployCmd)
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy an agent project to a hosting target",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, _, err := loadManifest(deployDir)
		if err != nil {
			return err
		}
		switch m.DeployTarget() {
		case manifest.TargetEngine:
			return deployEngineCmd.RunE(cmd, args)
		case manifest.TargetRun:
			return deployRunCmd.RunE(cmd, args)
		default:
			return fmt.Errorf("unknown deploy target %q in manifest (valid: %v)", m.DeployTarget(), manifest.ValidTargets)
		}
	},
}

var deployEngineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Deploy to the managed agent engine API",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, dir, err := loadManifest(deployDir)
		if err != nil {
			return err
		}
		project, err := resolveProject(deployProject, m)
		if err != nil {
			return err
		}
		region, err := resolveRegion(deployRegion, m)
		if err != nil {
			return err
		}

		client := newEngineClient(project, region)
		ctx := cmd.Context()

		md, err := engine.LoadMetadata(dir)
		if err != nil {
			return err
		}

		eng := &engine.Engine{
			DisplayName: m.EngineDisplayName(),
			Description: m.Description,
			Spec:        engineSpec(m),
		}

		var op *engine.Operation
		if md != nil && md.EngineName != "" {
			fmt.Printf("Updating engine %s\n", md.EngineName)
			eng.Name = md.EngineName
			op, err = client.UpdateEngine(ctx, eng)
		} else {
			fmt.Printf("Creating engine %s in %s/%s\n", eng.DisplayName, project, region)
			op, err = client.CreateEngine(ctx, eng)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Waiting for operation %s\n", op.Name)
		op, err = client.WaitOperation(ctx, op, 5*time.Second, deployWait)
		if err != nil {
			return err
		}
		if op.Error != nil {
			return fmt.Errorf("deploy failed: %s", op.Error.Message)
		}

		engineName := deployedEngineName(op)
		if engineName == "" && md != nil {
			engineName = md.EngineName
		}
		if err := engine.SaveMetadata(dir, &engine.Metadata{
			EngineName: engineName,
			DeployedAt: time.Now().UTC(),
			Project:    project,
			Region:     region,
			Flags:      deployFlags(m, md != nil && md.EngineName != ""),
		}); err != nil {
			return err
		}

		fmt.Printf("Deployed %s\n", engineName)
		return nil
	},
}

var deployRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Deploy to Cloud Run via the gcloud CLI",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, dir, err := loadManifest(deployDir)
		if err != nil {
			return err
		}
		if deployProject != "" {
			if m.Deploy == nil {
				m.Deploy = &manifest.DeployBlock{}
			}
			m.Deploy.Project = deployProject
		}
		if deployRegion != "" {
			if m.Deploy == nil {
				m.Deploy = &manifest.DeployBlock{}
			}
			m.Deploy.Region = deployRegion
		}

		argv, err := gcloud.RunDeployArgs(m, dir)
		if err != nil {
			return err
		}
		if deployDryRun {
			fmt.Printf("gcloud %s\n", strings.Join(argv, " "))
			return nil
		}

		runner := &gcloud.Runner{}
		if !runner.Available() {
			return fmt.Errorf("gcloud not found on PATH; install the Google Cloud SDK")
		}
		out, err := runner.Run(cmd.Context(), argv...)
		if err != nil {
			return err
		}
		if out.ExitCode != 0 {
			return fmt.Errorf("gcloud run deploy exited %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
		}
		fmt.Print(out.Stdout)
		return nil
	},
}

// deployFlags records the effective deploy settings alongside the engine
// name, so later runs (and humans) can see how the deploy was made.
func deployFlags(m *manifest.AgentManifest, updated bool) map[string]string {
	flags := map[string]string{
		"target": manifest.TargetEngine,
		"wait":   deployWait.String(),
	}
	if updated {
		flags["mode"] = "update"
	} else {
		flags["mode"] = "create"
	}
	if m.Type != "" {
		flags["agent_type"] = m.Type
	}
	return flags
}

// engineSpec maps the manifest's runtime configuration onto the engine API's
// free-form spec block.
func engineSpec(m *manifest.AgentManifest) map[string]interface{} {
	spec := map[string]interface{}{
		"agent_type": m.Type,
		"model":      m.Model,
	}
	if m.Prompt != "" {
		spec["system_prompt"] = m.Prompt
	}
	if len(m.Tools) > 0 {
		tools := make([]map[string]interface{}, 0, len(m.Tools))
		for _, t := range m.Tools {
			tool := map[string]interface{}{"name": t.Name}
			if t.Description != "" {
				tool["description"] = t.Description
			}
			if len(t.Parameters) > 0 {
				tool["parameters"] = t.Parameters
			}
			tools = append(tools, tool)
		}
		spec["tools"] = tools
	}
	if m.Retrieval != nil {
		r := map[string]interface{}{"datastore_id": m.Retrieval.DatastoreID}
		if m.Retrieval.TopK > 0 {
			r["top_k"] = m.Retrieval.TopK
		}
		if m.Retrieval.DistanceThreshold > 0 {
			r["distance_threshold"] = m.Retrieval.DistanceThreshold
		}
		spec["retrieval"] = r
	}
	if m.Audio != nil {
		a := map[string]interface{}{}
		if m.Audio.Voice != "" {
			a["voice"] = m.Audio.Voice
		}
		if m.Audio.InputSampleRate > 0 {
			a["input_sample_rate"] = m.Audio.InputSampleRate
		}
		if m.Audio.OutputSampleRate > 0 {
			a["output_sample_rate"] = m.Audio.OutputSampleRate
		}
		if len(a) > 0 {
			spec["audio"] = a
		}
	}
	return spec
}

// deployedEngineName extracts the engine resource name from a finished
// operation response.
func deployedEngineName(op *engine.Operation) string {
	if op == nil || op.Response == nil {
		return ""
	}
	if name, ok := op.Response["name"].(string); ok {
		return name
	}
	return ""
}
