package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Alp4ka/keyset/internal/catalog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	var (
		count int
		ties  bool
		seed  uint64
	)

	cmdSeed := &cobra.Command{
		Use:   "seed",
		Short: "Replaces the catalog with generated products.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 0 {
				return fmt.Errorf("count must not be negative, got %d", count)
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}

			c, err := catalog.Open(cmd.Context(), cfg.Store, cfg.Paging, log)
			if err != nil {
				return err
			}
			defer c.Close()

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			products := catalog.Generate(count, ties, rand.New(rand.NewPCG(seed, seed)))
			if err = c.Seed(cmd.Context(), products); err != nil {
				return err
			}

			log.WithFields(logrus.Fields{
				"count":  len(products),
				"ties":   ties,
				"driver": cfg.Store.Driver,
			}).Info("seeded")

			return nil
		},
	}
	flags := cmdSeed.Flags()
	flags.IntVarP(&count, "count", "n", catalog.SeedSize, "Number of products")
	flags.BoolVar(&ties, "ties", false, "Repeat prices so that sort keys tie")
	flags.Uint64Var(&seed, "seed", 0, "Random seed, time based when zero")
	rootCmd.AddCommand(cmdSeed)
}
