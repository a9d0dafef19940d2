package cli

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/geoinspect/internal/cli/helpers"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
)

var typesFormats = []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON}

type creatorRow struct {
	Kind    string `header:"KIND" json:"kind"`
	Order   int    `header:"ORDER" json:"order"`
	Creator string `header:"CREATOR" json:"creator"`
}

func newTypesCmd(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the loader creators of every kind",
		Long: `List the loader creators of every kind in the order they are tried,
including user types from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := helpers.ValidateFormat(format, typesFormats)
			if err != nil {
				return err
			}
			cfg, logger, err := g.setup(cmd)
			if err != nil {
				return err
			}
			reg, err := registry(cfg, logger)
			if err != nil {
				return err
			}

			var rows []creatorRow
			for k := geometry.Kind(0); int(k) < geometry.KindCount; k++ {
				for i, name := range reg.Creators(k) {
					rows = append(rows, creatorRow{Kind: k.String(), Order: i + 1, Creator: name})
				}
			}
			if f == helpers.FormatJSON {
				return helpers.WriteJSON(cmd.OutOrStdout(), rows)
			}
			return helpers.WriteTable(cmd.OutOrStdout(), rows)
		},
	}
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, typesFormats)
	return cmd
}
