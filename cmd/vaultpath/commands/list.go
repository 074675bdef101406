package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/vaultpath/pkg/record"
)

func NewListCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records visible to this profile",
		Long: `List the UID, type, and title of every record the profile's credential
can see. Values are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			newFetcher := rt.newFetcher
			if newFetcher == nil {
				newFetcher = buildTransport
			}
			fetcher, err := newFetcher(ctx, rt)
			if err != nil {
				return err
			}

			records, err := fetcher.Fetch(ctx, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "UID\tTYPE\tTITLE")
			for _, rec := range record.Dedupe(records) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Uid, rec.Type, rec.Title)
			}
			return w.Flush()
		},
	}

	return cmd
}
