package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewGetCommand(rt *Runtime) *cobra.Command {
	var (
		all        bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get <notation>",
		Short: "Resolve a notation and print its value",
		Long: `Resolve a notation string against the vault and print the result.

By default the single-value form is used and the raw value printed, making
the command suitable for scripting. With --all every element of the
addressed list is printed on its own line.

Examples:
  # A password by record title
  vaultpath get 'My Servers/field/password'

  # A nested property by UID
  vaultpath get 'hYCnx3rqPcaL3nWtHaDdBg/custom_field/phone[0][number]'

  # Every phone number
  vaultpath get --all 'hYCnx3rqPcaL3nWtHaDdBg/custom_field/phone[][number]'

  # Use in scripts
  export DB_PASSWORD=$(vaultpath get 'Database/field/password')`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			resolver, err := rt.buildResolver(ctx)
			if err != nil {
				return err
			}

			if all {
				results, err := resolver.GetResults(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), results)
				}
				for _, r := range results {
					fmt.Fprintln(cmd.OutOrStdout(), r)
				}
				return nil
			}

			value, err := resolver.GetValue(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), value)
			}
			switch v := value.(type) {
			case string:
				fmt.Fprint(cmd.OutOrStdout(), v)
			case []byte:
				// File content goes to stdout verbatim.
				_, err := cmd.OutOrStdout().Write(v)
				return err
			default:
				b, err := json.Marshal(v)
				if err != nil {
					return fmt.Errorf("failed to encode value: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), string(b))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Print every element of the addressed list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
