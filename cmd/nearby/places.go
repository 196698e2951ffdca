package main

import (
	"strings"

	"github.com/spf13/cobra"

	"nearby/internal/autocomplete"
	"nearby/models"
)

var placesFlags struct {
	lat, lng float64
}

var placesCmd = &cobra.Command{
	Use:   "places [text]",
	Short: "Look up location suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		client := autocomplete.New(a.geocoder, a.prefs, func(autocomplete.Update) {})
		defer client.Close()

		var near *models.Coordinate
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
			near = &models.Coordinate{Lat: placesFlags.lat, Lng: placesFlags.lng}
		}
		return printSuggestions(cmd, client.Lookup(cmd.Context(), strings.Join(args, " "), near))
	},
}

func init() {
	placesCmd.Flags().Float64Var(&placesFlags.lat, "lat", 0, "bias results towards this latitude")
	placesCmd.Flags().Float64Var(&placesFlags.lng, "lng", 0, "bias results towards this longitude")
}
