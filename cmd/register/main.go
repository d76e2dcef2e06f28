package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/noah-isme/toko-register/internal/catalog"
	"github.com/noah-isme/toko-register/internal/obs"
	"github.com/noah-isme/toko-register/internal/pricing"
	"github.com/noah-isme/toko-register/internal/promotion"
	"github.com/noah-isme/toko-register/internal/register"
)

func main() {
	_ = godotenv.Load()

	rulesFile := flag.String("rules", os.Getenv("PROMOTION_RULES_FILE"), "YAML promotion rules file (defaults to the built-in rules)")
	verbose := flag.Bool("v", false, "print each rule evaluation")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-rules file] [-v] SKU...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := obs.NewLogger("console", os.Getenv("OBS_LOG_LEVEL"))

	pipeline := pricing.DefaultPipeline()
	if path := strings.TrimSpace(*rulesFile); path != "" {
		defs, err := promotion.LoadFile(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("load promotion rules")
		}
		pipeline, err = promotion.Pipeline(defs)
		if err != nil {
			logger.Fatal().Err(err).Msg("build promotion rules")
		}
	}

	mem, err := catalog.NewMemory(catalog.DefaultItems())
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog")
	}
	svc := &register.Service{Catalog: mem, Pipeline: pipeline, Logger: logger}

	quote, err := svc.Quote(context.Background(), splitSKUs(flag.Args()))
	if err != nil {
		logger.Fatal().Err(err).Msg("price basket")
	}
	if *verbose {
		for _, step := range quote.Steps {
			verdict := "rejected"
			if step.Accepted {
				verdict = "accepted"
			}
			fmt.Printf("%-20s %7d -> %7d  %s stop=%t\n", step.Rule, step.Before, step.Candidate, verdict, step.Stop)
		}
	}
	fmt.Println(quote.Summary)
}

// splitSKUs accepts both "A B C" and "A,B,C" forms.
func splitSKUs(args []string) []string {
	var skus []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				skus = append(skus, part)
			}
		}
	}
	return skus
}
