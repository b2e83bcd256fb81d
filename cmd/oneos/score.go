package main

import (
	"encoding/json"
	"fmt"
	"io"

	"one-os/internal/scoring"

	"github.com/spf13/cobra"
)

var (
	scoreInput scoring.GrowthInput
	scoreRaw   bool
	scorePlain bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute a client health score from weekly metrics",
	Long: `Compute a client health score without touching the database.

Example:
  oneos score --revenue 15000 --active-users 1250 --conversion-rate 3.5 --churn-rate 2.1 --satisfaction 85`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.Float64Var(&scoreInput.Revenue, "revenue", 0, "weekly revenue")
	f.Float64Var(&scoreInput.ActiveUsers, "active-users", 0, "active users")
	f.Float64Var(&scoreInput.ConversionRate, "conversion-rate", 0, "conversion rate in percent")
	f.Float64Var(&scoreInput.ChurnRate, "churn-rate", 0, "churn rate in percent")
	f.Float64Var(&scoreInput.CustomerSatisfaction, "satisfaction", 0, "customer satisfaction, 0-100")
	f.BoolVar(&scoreRaw, "raw", false, "use the unbounded formula for conversion, churn and satisfaction")
	f.BoolVar(&scorePlain, "plain", false, "print score and status instead of JSON")
}

func runScore(cmd *cobra.Command, args []string) error {
	scorer := scoring.Scorer{ClampConversion: !scoreRaw}
	return printScore(cmd.OutOrStdout(), scorer.Evaluate(scoreInput), scorePlain)
}

func printScore(out io.Writer, hs scoring.HealthScore, plain bool) error {
	if plain {
		_, err := fmt.Fprintf(out, "%d %s\n", hs.Score, hs.Status)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(hs)
}
