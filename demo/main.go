// Package main walks through the goecon pipeline on simulated market data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/sartorproj/goecon/hellwig"
	"github.com/sartorproj/goecon/logging"
	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/stats"
	"github.com/sartorproj/goecon/timeseries"
	"github.com/sartorproj/goecon/transform"
)

// Scenario defines one simulated dataset
type Scenario struct {
	Name        string
	Description string
	N           int     // Number of observations
	Seed        uint64  // Random seed
	Beta        float64 // Loading of the price on the driving predictor
	Noise       float64 // Std of the idiosyncratic price shock
	Trend       float64 // Deterministic drift of the second predictor
}

// ScenarioResult holds the outcome for JSON export
type ScenarioResult struct {
	Name     string            `json:"name"`
	Columns  []string          `json:"columns"`
	Verdicts map[string]bool   `json:"verdicts"`
	Recipe   *transform.Recipe `json:"recipe"`
	Best     []string          `json:"best"`
	Capacity float64           `json:"capacity"`
	Report   *pipeline.Report  `json:"report"`
}

func main() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("goecon Demonstration - stationarity, Hellwig selection, OLS")
	fmt.Println(strings.Repeat("=", 80))

	scenarios := []Scenario{
		{Name: "Strong driver", N: 300, Seed: 1, Beta: 2, Noise: 0.5, Trend: 0.05, Description: "Price follows one random-walk predictor closely"},
		{Name: "Weak driver", N: 300, Seed: 2, Beta: 0.5, Noise: 2, Trend: 0.05, Description: "Price is mostly its own noise"},
		{Name: "Quadratic trend", N: 240, Seed: 3, Beta: 1, Noise: 1, Trend: 0.002, Description: "One predictor needs second differences"},
	}

	logger, err := logging.New(logging.WARN, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	var results []ScenarioResult
	for i, sc := range scenarios {
		fmt.Printf("\n%s\n[%d/%d] %s: %s\n%s\n", strings.Repeat("=", 80), i+1, len(scenarios), sc.Name, sc.Description, strings.Repeat("=", 80))

		data := simulate(sc)
		result := ScenarioResult{Name: sc.Name, Columns: data.Names(), Verdicts: map[string]bool{}}

		// 1. Stationarity of the raw levels
		tester := stats.NewTester(logger)
		fmt.Println("\n1. Stationarity (ADF + KPSS, alpha=0.05)")
		nonStationary, _ := tester.Classify(data)
		for _, name := range data.Names() {
			col, _ := data.Column(name)
			v := tester.Test(col)
			result.Verdicts[name] = v.Stationary
			if v.ADF != nil && v.KPSS != nil {
				fmt.Printf("   %-10s ADF p=%.4f  KPSS p=%.4f  stationary=%t\n", name, v.ADF.PValue, v.KPSS.PValue, v.Stationary)
			} else {
				fmt.Printf("   %-10s not tested (%v)\n", name, v.Err)
			}
		}

		// 2. Differencing to stationarity
		fmt.Println("\n2. Differencing")
		diffed, recipe, err := transform.MakeStationary(data, nonStationary, 2, transform.WithTester(tester), transform.WithLogger(logger))
		if err != nil {
			fmt.Printf("   Error: %v\n", err)
			continue
		}
		result.Recipe = recipe
		fmt.Print(indent(recipe.String()))
		fmt.Printf("   %d rows remain\n", diffed.Len())

		// 3. Hellwig on the whole transformed table
		target := transform.OutputName("CLOSE", orderOf(recipe, "CLOSE"))
		if y, ok := diffed.Column(target); ok {
			fmt.Printf("\n3. Hellwig selection for %s\n", target)
			ranking, err := hellwig.SelectBest(y, diffed.Drop(target))
			if err != nil {
				fmt.Printf("   Error: %v\n", err)
			} else {
				for j, c := range ranking[:min(3, len(ranking))] {
					fmt.Printf("   %d. H=%.4f  %s\n", j+1, c.Capacity, strings.Join(c.Predictors, ", "))
				}
				best, _ := hellwig.Best(ranking)
				result.Best, result.Capacity = best.Predictors, best.Capacity
			}
		}

		// 4. Full pipeline with hold-out evaluation
		fmt.Println("\n4. Pipeline")
		cfg := pipeline.DefaultConfig()
		cfg.TargetTransformed = target
		cfg.CorrLow, cfg.CorrHigh = 0, 1
		p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
		if err != nil {
			fmt.Printf("   Error: %v\n", err)
			continue
		}
		report, err := p.Run(context.Background(), data)
		if err != nil {
			fmt.Printf("   Error: %v\n", err)
		} else {
			result.Report = report
			fmt.Print(indent(report.String()))
		}

		results = append(results, result)
	}

	fmt.Printf("\n%s\nEXPORTING RESULTS\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))
	if data, err := json.MarshalIndent(results, "", "  "); err == nil {
		if err := os.WriteFile("goecon_results.json", data, 0o644); err != nil {
			fmt.Printf("Error writing results: %v\n", err)
		} else {
			fmt.Printf("Exported %d scenarios to goecon_results.json\n", len(results))
		}
	} else {
		fmt.Printf("Error encoding results: %v\n", err)
	}
	fmt.Println(strings.Repeat("=", 80))
}

// simulate builds a price driven by a random-walk predictor, a trending
// predictor, a stationary distraction and a slowly moving inflation rate.
func simulate(sc Scenario) *timeseries.Table {
	rng := rand.New(rand.NewPCG(sc.Seed, sc.Seed*31+7))
	closeP := make([]float64, sc.N)
	driver := make([]float64, sc.N)
	trend := make([]float64, sc.N)
	volume := make([]float64, sc.N)
	inflation := make([]float64, sc.N)

	c, d, tr, inf := 500.0, 200.0, 100.0, 3.0
	for i := 0; i < sc.N; i++ {
		e := rng.NormFloat64()
		d += e
		c += sc.Beta*e + sc.Noise*rng.NormFloat64()
		tr += sc.Trend*float64(i) + 0.5*rng.NormFloat64()
		inf = math.Max(0.1, inf+0.02*rng.NormFloat64())

		closeP[i], driver[i], trend[i], inflation[i] = c, d, tr, inf
		volume[i] = 1000 + 50*rng.NormFloat64()
	}

	t, err := timeseries.NewTableFromSeries(
		timeseries.NewNamed("CLOSE", closeP),
		timeseries.NewNamed("DRIVER", driver),
		timeseries.NewNamed("TREND", trend),
		timeseries.NewNamed("VOLUME", volume),
		timeseries.NewNamed("INFLATION", inflation),
	)
	if err != nil {
		panic(err)
	}
	return t
}

func orderOf(r *transform.Recipe, variable string) int {
	if e, ok := r.Lookup(variable); ok {
		return e.Order
	}
	return 0
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "   " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
