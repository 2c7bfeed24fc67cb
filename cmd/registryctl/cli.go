package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"registry-backend/internal/files"
	"registry-backend/internal/registry"
	"registry-backend/internal/shared/storage/object"
)

// toolEnv is what the commands operate on.
type toolEnv struct {
	Allocator *registry.Allocator
	Files     files.Repo
	Store     object.BlobStore
	Close     func() error
}

type envLoader func(ctx context.Context) (*toolEnv, error)

func newRootCommand(load envLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "registryctl",
		Short:         "Registry maintenance tool",
		Long:          "Inspect and repair the GR number counter and check stored files against their records.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(newCounterCommand(load))
	cmd.AddCommand(newBlobsCommand(load))
	return cmd
}

func newCounterCommand(load envLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Inspect or repair the registry counter",
	}
	cmd.AddCommand(newCounterShowCommand(load))
	cmd.AddCommand(newCounterRepairCommand(load))
	return cmd
}

func newCounterShowCommand(load envLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the counter and the highest recorded number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, load, func(env *toolEnv) error {
				st, err := env.Allocator.Status(cmd.Context())
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func newCounterRepairCommand(load envLoader) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Raise a missing or stale counter to the highest recorded number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, load, func(env *toolEnv) error {
				out := cmd.OutOrStdout()
				if dryRun {
					st, err := env.Allocator.Status(cmd.Context())
					if err != nil {
						return err
					}
					printStatus(out, st)
					if st.Stale() {
						fmt.Fprintf(out, "would set counter to %d\n", st.Highest)
					}
					return nil
				}
				st, changed, err := env.Allocator.Repair(cmd.Context())
				if err != nil {
					return err
				}
				printStatus(out, st)
				if changed {
					fmt.Fprintf(out, "counter set to %d\n", st.Highest)
				} else {
					fmt.Fprintln(out, "counter is up to date")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	return cmd
}

func newBlobsCommand(load envLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobs",
		Short: "Check stored files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "List live records whose stored file is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, load, func(env *toolEnv) error {
				missing, err := missingBlobs(cmd.Context(), env)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(missing) == 0 {
					fmt.Fprintln(out, "all stored files present")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "GR\tID\tPATH")
				for _, f := range missing {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.RegistryNumber, f.ID, f.StoragePath)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return fmt.Errorf("%d stored files missing", len(missing))
			})
		},
	})
	return cmd
}

func missingBlobs(ctx context.Context, env *toolEnv) ([]files.File, error) {
	list, err := env.Files.Query(ctx, files.Filters{})
	if err != nil {
		return nil, err
	}
	var missing []files.File
	for _, f := range list {
		ok, err := env.Store.Exists(ctx, f.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", f.StoragePath, err)
		}
		if !ok {
			missing = append(missing, f)
		}
	}
	return missing, nil
}

func withEnv(cmd *cobra.Command, load envLoader, fn func(*toolEnv) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
		cmd.SetContext(ctx)
	}
	env, err := load(ctx)
	if err != nil {
		return err
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(env)
}

func printStatus(w io.Writer, st registry.Status) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	counter := "missing"
	if st.CounterPresent {
		counter = fmt.Sprintf("%d", st.Counter)
	}
	latest := st.Latest
	if latest == "" {
		latest = "-"
	}
	fmt.Fprintf(tw, "counter\t%s\n", counter)
	fmt.Fprintf(tw, "latest record\t%s\n", latest)
	fmt.Fprintf(tw, "highest record\t%d\n", st.Highest)
	fmt.Fprintf(tw, "next number\t%s\n", registry.Format(max(st.Counter, st.Highest)+1))
	_ = tw.Flush()
}
