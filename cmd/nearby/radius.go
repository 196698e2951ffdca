package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nearby/pkg/geo"
)

var radiusCmd = &cobra.Command{
	Use:   "radius [km]",
	Short: "Show or set the persisted search radius",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		if len(args) == 1 {
			r, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("radius %q is not a number", args[0])
			}
			if err := a.prefs.SetRadius(cmd.Context(), r); err != nil {
				return fmt.Errorf("%w (choose one of %v)", err, geo.RadiusPresets)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g km\n", a.prefs.Radius(cmd.Context()))
		return nil
	},
}
