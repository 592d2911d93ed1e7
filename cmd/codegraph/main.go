// Command codegraph builds and queries a persistent semantic code graph of
// a source tree.
package main

import (
	gocontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/codegraphhq/codegraph/internal/codegraph"
	"github.com/codegraphhq/codegraph/internal/context"
	"github.com/codegraphhq/codegraph/internal/store"
	"github.com/codegraphhq/codegraph/internal/tools"
)

var version = "dev"

const (
	exitOK      = 0
	exitError   = 1
	exitCorrupt = 2
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, store.ErrCorrupt) {
			os.Exit(exitCorrupt)
		}
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codegraph",
		Short:         "Semantic code graph for multi-language source trees",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newInitCmd(),
		newIndexCmd(),
		newSyncCmd(),
		newStatusCmd(),
		newQueryCmd(),
		newContextCmd(),
		newServeCmd(),
	)
	return root
}

// resolvePath returns the first positional argument, or the working
// directory.
func resolvePath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func newInitCmd() *cobra.Command {
	var runIndex bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a new CodeGraph project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolvePath(args)
			cg, err := codegraph.Init(path)
			if err != nil {
				return err
			}
			defer cg.Close()
			fmt.Printf("Initialized CodeGraph at %s\n", path)
			if runIndex {
				result, err := cg.IndexAll(cmd.Context())
				if err != nil {
					return err
				}
				printIndexResult(result.FileCount, result.NodeCount, result.EdgeCount, result.DurationMS)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&runIndex, "index", "i", false, "run initial indexing after init")
	return cmd
}

func newIndexCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Full re-index of the project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cg, err := codegraph.Open(resolvePath(args))
			if err != nil {
				return err
			}
			defer cg.Close()
			_ = force // index always rebuilds from scratch
			result, err := cg.IndexAll(cmd.Context())
			if err != nil {
				return err
			}
			printIndexResult(result.FileCount, result.NodeCount, result.EdgeCount, result.DurationMS)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "clear existing data before indexing")
	return cmd
}

func printIndexResult(files, nodes, edges int, durationMS int64) {
	fmt.Printf("Indexed %d files: %d nodes, %d edges in %dms\n", files, nodes, edges, durationMS)
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [path]",
		Short: "Incremental sync of changed files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cg, err := codegraph.Open(resolvePath(args))
			if err != nil {
				return err
			}
			defer cg.Close()
			result, err := cg.Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Sync complete: %d added, %d modified, %d removed in %dms\n",
				result.FilesAdded, result.FilesModified, result.FilesRemoved, result.DurationMS)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show project statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cg, err := codegraph.Open(resolvePath(args))
			if err != nil {
				return err
			}
			defer cg.Close()
			stats, err := cg.Stats()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(stats)
			}
			fmt.Println("CodeGraph Status")
			fmt.Printf("  Files:  %d\n", stats.FileCount)
			fmt.Printf("  Nodes:  %d\n", stats.NodeCount)
			fmt.Printf("  Edges:  %d\n", stats.EdgeCount)
			fmt.Printf("  DB Size: %d bytes\n", stats.DBSizeBytes)
			if len(stats.NodesByKind) > 0 {
				fmt.Println("\n  Nodes by kind:")
				kinds := make([]string, 0, len(stats.NodesByKind))
				for kind := range stats.NodesByKind {
					kinds = append(kinds, kind)
				}
				sort.Strings(kinds)
				for _, kind := range kinds {
					fmt.Printf("    %s: %d\n", kind, stats.NodesByKind[kind])
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var path string
	var limit int
	cmd := &cobra.Command{
		Use:   "query <term>",
		Short: "Search for symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cg, err := codegraph.Open(resolvePath([]string{path}))
			if err != nil {
				return err
			}
			defer cg.Close()
			results, err := cg.Search(args[0], limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Printf("No results found for %q\n", args[0])
				return nil
			}
			for _, r := range results {
				fmt.Printf("%s (%s) - %s:%d\n", r.Node.Name, r.Node.Kind, r.Node.FilePath, r.Node.StartLine)
				if r.Node.Signature != "" {
					fmt.Printf("  %s\n", r.Node.Signature)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "project path")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum results")
	return cmd
}

func newContextCmd() *cobra.Command {
	var path, format string
	var maxNodes int
	cmd := &cobra.Command{
		Use:   "context <task>",
		Short: "Build context for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cg, err := codegraph.Open(resolvePath([]string{path}))
			if err != nil {
				return err
			}
			defer cg.Close()
			opts := context.DefaultOptions()
			opts.MaxNodes = maxNodes
			tc, err := cg.BuildContext(args[0], opts)
			if err != nil {
				return err
			}
			if format == "json" {
				fmt.Println(context.FormatJSON(tc))
			} else {
				fmt.Println(context.FormatMarkdown(tc))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "project path")
	cmd.Flags().IntVarP(&maxNodes, "max-nodes", "n", 20, "maximum symbols")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format (markdown or json)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP tool server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cg, err := codegraph.Open(resolvePath([]string{path}))
			if err != nil {
				return err
			}
			defer cg.Close()
			srv := tools.NewServer(cg, version)
			return srv.Run(gocontext.Background())
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "project path")
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
