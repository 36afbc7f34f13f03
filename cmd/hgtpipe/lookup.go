package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kermarrec/hgtpipe/internal/hgt"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup LAT LNG",
	Short: "Print the elevation at a position from the local tiles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q", args[0])
		}
		lng, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q", args[1])
		}

		folder, err := tileFolder()
		if err != nil {
			return err
		}

		elev, err := hgt.Lookup(folder, hgt.Position{Lat: lat, Lng: lng})
		if err != nil {
			return err
		}

		if elev.Void {
			fmt.Printf("(%g, %g): void sample\n", lat, lng)
			return nil
		}
		fmt.Printf("(%g, %g): %dm\n", lat, lng, elev.Value)
		return nil
	},
}
