package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nearby/internal/session"
	"nearby/models"
	"nearby/pkg/device"
	"nearby/pkg/graceful"
)

var locateFlags struct {
	lat, lng, accuracy float64
	fixed              bool
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Acquire a position, resolve its address and emit a nearby search",
	PreRun: func(cmd *cobra.Command, args []string) {
		locateFlags.fixed = cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := graceful.Context(cmd.Context())
		defer cancel()

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()
		if locateFlags.fixed {
			a.positioner = device.Static{Reading: device.Reading{
				Lat:            locateFlags.lat,
				Lng:            locateFlags.lng,
				AccuracyMeters: locateFlags.accuracy,
			}}
		}

		var emitted []models.SearchEvent
		emit := session.EmitterFunc(func(ctx context.Context, ev models.SearchEvent) error {
			emitted = append(emitted, ev)
			return a.emitter.Emit(ctx, ev)
		})

		sess := session.New(session.Deps{
			Prefs:      a.prefs,
			Acquirer:   a.acquirer(),
			Geocoder:   a.geocoder,
			Categories: a.categories,
			Catalog:    a.source(),
			Emitter:    emit,
		}, session.WithProfile(cfg.Profile))
		defer sess.Close()

		fix, err := sess.Locate(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		v := sess.View()
		fmt.Fprintf(out, "%s\n%.6f, %.6f (±%.0fm)\n", v.Address, fix.Coordinate.Lat, fix.Coordinate.Lng, fix.AccuracyMeters)
		for _, ev := range emitted {
			b, err := json.MarshalIndent(ev.Params, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		}
		return nil
	},
}

func init() {
	locateCmd.Flags().Float64Var(&locateFlags.lat, "lat", 0, "use a fixed latitude instead of the configured positioner")
	locateCmd.Flags().Float64Var(&locateFlags.lng, "lng", 0, "use a fixed longitude instead of the configured positioner")
	locateCmd.Flags().Float64Var(&locateFlags.accuracy, "accuracy", 25, "accuracy in metres for --lat/--lng")
}
