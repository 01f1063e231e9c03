package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/logging"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "YAML scenario file (empty = built-in grove)")
		ticks        = flag.Int("ticks", 200, "Number of ticks to simulate")
		seed         = flag.Int64("seed", 1, "Random seed for the scheduler and drops")
		chance       = flag.Float64("chance", -1, "Override per-tick check chance (negative = scenario value)")
		inspect      = flag.String("inspect", "", "Position x,y,z to inspect after the run")
		verbose      = flag.Bool("v", false, "Print every tick with activity")
		asJSON       = flag.Bool("json", false, "Print summary as JSON")
		logLevel     = flag.String("log-level", "WARN", "Console log level")
	)
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logging.Configure(logging.Options{ConsoleLevel: level, FileLevel: logging.ERROR})

	sc, err := LoadScenario(*scenarioPath)
	if err != nil {
		log.Fatalf("❌ Scenario: %v", err)
	}
	if *chance >= 0 {
		sc.Chance = *chance
	}

	sim, err := NewSimulation(sc, *seed)
	if err != nil {
		log.Fatalf("❌ Setup: %v", err)
	}
	defer sim.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Printf("🌳 Scenario %q: %d ticks, seed %d, chance %.4f\n", sc.Name, *ticks, *seed, sc.Chance)
	report := func(st world.TickStats) {
		if *verbose && (st.Checked > 0 || st.SkippedUnloaded > 0) {
			fmt.Printf("tick %4d: checked=%d persist=%d decay=%d unloaded=%d candidates=%d\n",
				st.Tick, st.Checked, st.Persisted, st.Decayed, st.SkippedUnloaded, st.Candidates)
		}
	}

	sum, err := sim.Run(ctx, *ticks, report)
	if err != nil {
		log.Fatalf("❌ Run: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
	} else {
		fmt.Printf("📊 checked=%d persisted=%d decayed=%d skipped=%d foliage_left=%d\n",
			sum.Checked, sum.Persisted, sum.Decayed, sum.Skipped, sum.Foliage)
		for variant, n := range sum.Saplings {
			fmt.Printf("   🌱 %s saplings: %d\n", variant, n)
		}
	}

	if *inspect != "" {
		pos, err := parsePosition(*inspect)
		if err != nil {
			log.Fatalf("❌ Inspect: %v", err)
		}
		for _, adj := range []decay.Adjacency{decay.Orthogonal6, decay.Extended18} {
			model := adj
			res, _, err := sim.World().Inspect(pos, &model)
			if err != nil {
				log.Fatalf("❌ Inspect: %v", err)
			}
			fmt.Printf("🔎 %s %-11s → %s (distance %d)\n", pos, adj, res.Outcome, res.Distance)
		}
	}
}

// parsePosition разбирает "x,y,z"
func parsePosition(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("ожидалось x,y,z, получено %q", s)
	}
	var coords [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("координата %q: %w", p, err)
		}
		coords[i] = v
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
