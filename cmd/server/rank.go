package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/db"
	"github.com/tripsync/internal/service"
)

func newRankCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rank TRIP_ID",
		Short: "Print the best candidate dates of a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid trip id %q", args[0])
			}

			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.TopDates
			}

			// Rank as the owner so the access check passes.
			var trip db.Trip
			if err := db.DB.Select("id", "owner_id").First(&trip, uint(tripID)).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return service.ErrTripNotFound
				}
				return err
			}

			trips := service.NewTripService(db.DB)
			svc := availability.NewService(
				service.NewAvailabilityStore(db.DB),
				trips,
				availability.NewEngine(weightsFrom(cfg), cfg.MaxRangeDays),
				log,
			)
			ranked, err := svc.TopDates(cmd.Context(), trip.ID, trip.OwnerID, limit)
			if err != nil {
				return err
			}
			return printRanking(os.Stdout, ranked)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of dates (defaults to TRIPSYNC_TOP_DATES)")
	return cmd
}

func printRanking(w io.Writer, ranked []availability.RankedDate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tDATE\tSCORE\tHEAT\tTIER")
	for i, r := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.0f%%\t%s\n", i+1, r.Date, r.Score, r.Heat.Percentage*100, r.Heat.Tier)
	}
	return tw.Flush()
}
