package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dom/snake-arena/internal/runner"
)

// Dev tool: run one match against a local simulator binary and print the
// streamed events, without the server or a database.
func main() {
	simPath := flag.String("sim", "snake-sim", "Path to the simulator binary")
	modelA := flag.String("a", "", "First model identifier")
	modelB := flag.String("b", "", "Second model identifier")
	width := flag.Int("width", 10, "Board width")
	height := flag.Int("height", 10, "Board height")
	rounds := flag.Int("rounds", 100, "Round cap")
	apples := flag.Int("apples", 5, "Apple count")
	timeout := flag.Duration("timeout", 30*time.Minute, "Match timeout")
	quiet := flag.Bool("quiet", false, "Only print the final result")
	flag.Parse()

	if *modelA == "" || *modelB == "" {
		fmt.Println("Usage: arena -a <model> -b <model> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := runner.MatchConfig{
		ModelA:    *modelA,
		ModelB:    *modelB,
		Width:     *width,
		Height:    *height,
		MaxRounds: *rounds,
		NumApples: *apples,
	}

	var callbacks *runner.Callbacks
	if !*quiet {
		callbacks = &runner.Callbacks{
			OnStatus: func(ev runner.StatusEvent) {
				fmt.Printf("[status] round=%d %s\n", ev.Round, ev.Message)
			},
			OnFrame: func(ev runner.FrameEvent) {
				fmt.Printf("[frame] round=%d (%d bytes)\n", ev.Round, len(ev.State))
			},
			OnChunk: func(ev runner.ChunkEvent) {
				fmt.Printf("[chunk] slot=%d %s\n", ev.Slot, ev.Content)
			},
		}
	}

	r := runner.New(*simPath, nil, *timeout)
	result, err := r.Run(context.Background(), cfg, callbacks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "match failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
