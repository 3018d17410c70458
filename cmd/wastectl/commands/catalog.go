package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

func newCatalogCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the category catalog in model index order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(v)
			if err != nil {
				return err
			}

			if v.GetString("format") != formatTable {
				return writeJSON(cmd.OutOrStdout(), models.CatalogResponse{
					Categories: cat.Names(),
					Count:      cat.Len(),
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tCATEGORY")
			for i, name := range cat.Names() {
				fmt.Fprintf(tw, "%d\t%s\n", i, name)
			}
			return tw.Flush()
		},
	}
}
