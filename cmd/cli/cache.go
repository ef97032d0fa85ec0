package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bridgehub/bridge/internal/app"
	"github.com/bridgehub/bridge/internal/config"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the answer cache",
	}

	cmd.AddCommand(cacheStatsCmd())
	cmd.AddCommand(cacheClearCmd())

	return cmd
}

func cacheStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and remote tier status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			st, closeFn, err := app.OpenCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			stats := st.Stats()
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			remote := "none"
			if stats.RemoteAvailable {
				remote = stats.RemoteName
			}
			fmt.Fprintf(out, "Directory:  %s\n", cfg.Cache.Dir)
			fmt.Fprintf(out, "Entries:    %d\n", stats.Size)
			fmt.Fprintf(out, "Threshold:  %.2f\n", st.Threshold())
			fmt.Fprintf(out, "Remote:     %s\n", remote)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func cacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every local cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the cache without --yes")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			st, closeFn, err := app.OpenCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			n := st.Len()
			if err := st.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries from %s\n", n, cfg.Cache.Dir)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the cache")

	return cmd
}
