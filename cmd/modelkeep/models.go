package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tinoosan/modelkeep/internal/service"
)

func listCmd(o *overrides) *cobra.Command {
	var (
		downloadedOnly bool
		jsonOutput     bool
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List catalog models and their download state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(o, wireOpts{logOut: io.Discard})
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if downloadedOnly {
				kept := entries[:0]
				for _, e := range entries {
					if e.Downloaded {
						kept = append(kept, e)
					}
				}
				entries = kept
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return writeModelTable(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVarP(&downloadedOnly, "downloaded", "d", false, "only downloaded models")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	return cmd
}

func writeModelTable(w io.Writer, entries []service.ModelEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No models.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tDOWNLOADED")
	for _, e := range entries {
		size := "-"
		if e.SizeGB > 0 {
			size = humanize.Bytes(uint64(e.SizeGB * 1e9))
		}
		state := "no"
		if e.Downloaded {
			state = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.DisplayName, size, e.Type, state)
	}
	return tw.Flush()
}

func removeCmd(o *overrides) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <model-id>",
		Aliases: []string{"remove"},
		Short:   "Delete a model's files and clear its downloaded flag",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(o, wireOpts{logOut: io.Discard})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func pathCmd(o *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "path <model-id>",
		Short: "Print the primary file path of a downloaded model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(o, wireOpts{logOut: io.Discard})
			if err != nil {
				return err
			}
			defer a.Close()

			p, ok, err := a.svc.Path(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not downloaded", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	}
}

func storageCmd(o *overrides) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Show disk usage of the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(o, wireOpts{logOut: io.Discard})
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.svc.Storage(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return s.ToJSON(out)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Directory:\t%s\n", a.svc.ModelsDirectory())
			fmt.Fprintf(tw, "Total:\t%s\n", humanize.IBytes(s.TotalSpace))
			fmt.Fprintf(tw, "Free:\t%s\n", humanize.IBytes(s.FreeSpace))
			fmt.Fprintf(tw, "Used by models:\t%s\n", humanize.IBytes(s.UsedByModels))
			fmt.Fprintf(tw, "Downloaded:\t%d\n", len(s.DownloadedModels))
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	return cmd
}
