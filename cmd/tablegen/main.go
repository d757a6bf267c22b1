// Command tablegen precomputes the hand evaluator rank tables and writes them
// to disk so the server can skip the build step at startup.
package main

import (
	"flag"
	"log"

	"github.com/tms7331/centralized-poker/internal/poker/eval"
)

func main() {
	var out string
	flag.StringVar(&out, "out", "eval_tables.json", "output path for the rank tables")
	flag.Parse()

	evaluator, err := eval.Build()
	if err != nil {
		log.Fatalf("table build failed: %v", err)
	}
	if err := evaluator.Save(out); err != nil {
		log.Fatalf("table save failed: %v", err)
	}
	log.Printf("rank tables written to %s", out)
}
