package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sghaida/vdto/version"
)

func newVersionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Show how version identifiers are ordered and resolved",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sort <version>...",
		Short: "Print versions in ascending order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sorted := append([]string(nil), args...)
			version.Sort(version.Default, sorted)
			for _, v := range sorted {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "floor <id> <version>...",
		Short: "Print the version a locator would serve for id",
		Long: `Prints the greatest version not greater than id, the one a locator
resolves id to. "latest" selects the greatest version.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, versions := args[0], append([]string(nil), args[1:]...)
			version.Sort(version.Default, versions)

			var (
				got string
				ok  bool
			)
			if id == version.Latest {
				got, ok = version.Max(version.Default, versions)
			} else {
				got, ok = version.Floor(version.Default, versions, id)
			}
			a.logger.Debug("floor", zap.String("id", id), zap.Strings("versions", versions), zap.String("got", got))
			if !ok {
				return fmt.Errorf("vdtogen: no version at or below %q in %v", id, versions)
			}

			fmt.Fprintln(cmd.OutOrStdout(), got)
			if got != id {
				printInfo(cmd.ErrOrStderr(), "%s resolves to %s", id, got)
			}
			return nil
		},
	})
	return cmd
}
