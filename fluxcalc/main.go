package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"odisco_co2flux/co2flux"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
	With().Timestamp().Logger().Level(zerolog.InfoLevel)

// newRootCmd builds the command tree. Flag values live in the closure so
// every tree starts from a clean state.
func newRootCmd() *cobra.Command {
	var (
		verbose   bool
		sst       float64
		sss       float64
		pco2Water float64
		pco2Atm   float64
		wind      float64
	)

	rootCmd := &cobra.Command{
		Use:   "fluxcalc",
		Short: "fluxcalc - air-sea CO2 flux calculator",
		Long: `fluxcalc evaluates the air-sea CO2 flux after Wanninkhof (2014)
with CO2 solubility after Weiss (1974) for single measurements.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log = log.Level(zerolog.DebugLevel)
			}
		},
	}

	schmidtCmd := &cobra.Command{
		Use:   "schmidt",
		Short: "Schmidt number of CO2 in seawater",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := co2flux.Schmidt(sst)
			log.Debug().Float64("sst", sst).Float64("sc", sc).Msg("schmidt")
			fmt.Fprintf(cmd.OutOrStdout(), "Sc: %.4f\n", sc)
			return nil
		},
	}

	solubilityCmd := &cobra.Command{
		Use:   "solubility",
		Short: "CO2 solubility in seawater",
		RunE: func(cmd *cobra.Command, args []string) error {
			ko := co2flux.Solubility(sst, sss)
			log.Debug().Float64("sst", sst).Float64("sss", sss).Float64("ko", ko).Msg("solubility")
			fmt.Fprintf(cmd.OutOrStdout(), "Ko: %.6g mol/(kg*atm)\n", ko)
			return nil
		},
	}

	fluxCmd := &cobra.Command{
		Use:   "flux",
		Short: "Air-sea CO2 flux",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			f, dp, k := co2flux.Flux(pco2Water, pco2Atm, sst, sss, wind)
			log.Debug().Dur("took", time.Since(start)).Msg("flux")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "F_CO2: %.4f mmol/m²/day\n", f)
			fmt.Fprintf(out, "dpCO2: %.2f µatm\n", dp)
			fmt.Fprintf(out, "K_CO2: %.4f m/day\n", k)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	schmidtCmd.Flags().Float64Var(&sst, "sst", 0, "sea-surface temperature (°C)")
	schmidtCmd.MarkFlagRequired("sst")

	solubilityCmd.Flags().Float64Var(&sst, "sst", 0, "sea-surface temperature (°C)")
	solubilityCmd.Flags().Float64Var(&sss, "sss", 0, "sea-surface salinity")
	solubilityCmd.MarkFlagRequired("sst")
	solubilityCmd.MarkFlagRequired("sss")

	fluxCmd.Flags().Float64Var(&pco2Water, "pco2-water", 0, "seawater pCO2 (µatm)")
	fluxCmd.Flags().Float64Var(&pco2Atm, "pco2-atm", 0, "atmospheric pCO2 (µatm)")
	fluxCmd.Flags().Float64Var(&sst, "sst", 0, "sea-surface temperature (°C)")
	fluxCmd.Flags().Float64Var(&sss, "sss", 0, "sea-surface salinity")
	fluxCmd.Flags().Float64Var(&wind, "wind", 0, "wind speed (m/s)")
	for _, name := range []string{"pco2-water", "pco2-atm", "sst", "sss", "wind"} {
		fluxCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(schmidtCmd)
	rootCmd.AddCommand(solubilityCmd)
	rootCmd.AddCommand(fluxCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}
}
