package commands

import (
	"fmt"
	"io"

	"github.com/grindlemire/graft"
	"github.com/spf13/cobra"

	"github.com/threecrickets/resolve/internal/adapters/digest"
	"github.com/threecrickets/resolve/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Resolve the dependency graph and install its artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			rootOverride, _ := cmd.Flags().GetString("root")
			noCache, _ := cmd.Flags().GetBool("no-cache")

			components, _, err := graft.ExecuteFor[*app.Components](cmd.Context())
			if err != nil {
				return &exitCodeError{code: 4, err: err}
			}
			log := components.Logger
			log.Info("loading configuration from " + configPath)

			cfg, err := components.ConfigLoader.Load(configPath)
			if err != nil {
				log.Error(err)
				return &exitCodeError{code: 4, err: err}
			}

			digestPort, err := digest.New(cfg.DigestAlgorithm)
			if err != nil {
				log.Error(err)
				return &exitCodeError{code: 4, err: err}
			}

			root := cfg.Root
			if rootOverride != "" {
				root = rootOverride
			}

			eng := app.NewEngine(
				app.WithDigest(digestPort),
				app.WithStateStore(components.State),
				app.WithNotifier(components.Notifier),
				app.WithOverwrite(noCache),
			)
			for _, repo := range cfg.Repositories {
				eng.AddRepository(repo)
			}
			for _, sc := range cfg.Specifications {
				eng.AddModuleSpecification(sc.Specification, sc.Explicit)
			}
			for _, excl := range cfg.Exclusions {
				eng.AddExclusion(excl)
			}
			eng.SetConflictPolicy(cfg.Policy)
			eng.SetRoot(root)
			eng.SetStateFile(cfg.StateFile)

			result, err := eng.Run(cmd.Context())
			if err != nil {
				log.Error(err)
				return &exitCodeError{code: 4, err: err}
			}

			printSummary(cmd.OutOrStdout(), result)

			switch {
			case len(result.Failed) > 0:
				return &exitCodeError{code: 3, err: fmt.Errorf("%d artifact(s) failed to install", len(result.Failed))}
			case len(result.Unresolved) > 0:
				return &exitCodeError{code: 2, err: fmt.Errorf("%d module(s) could not be identified", len(result.Unresolved))}
			default:
				return nil
			}
		},
	}
}

func printSummary(w io.Writer, result *app.RunResult) {
	fmt.Fprintf(w, "identified %d module(s), %d conflict(s) resolved\n", len(result.Identified), len(result.Conflicts))
	fmt.Fprintf(w, "installed %d, skipped %d, removed %d artifact(s)\n", len(result.Installed), len(result.Skipped), len(result.Removed))
	for _, u := range result.Unresolved {
		fmt.Fprintf(w, "unresolved: %s\n", u.String())
	}
	for _, f := range result.Failed {
		fmt.Fprintf(w, "failed: %s: %v\n", f.Artifact.FilePath, f.Cause)
	}
}
