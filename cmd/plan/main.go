// Command plan prints the fastest route between two points.
//
//	plan 1.3068,103.7884 3.0815,101.5851
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hewliyang/waze-traffic-api/internal/adapters/waze"
	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/config"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/logging"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatal("usage: plan <from lat,lon> <to lat,lon>")
	}

	cfg, err := config.Load("waze-plan")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, "text")

	from, err := parsePoint(os.Args[1])
	if err != nil {
		log.Fatalf("from: %v", err)
	}
	to, err := parsePoint(os.Args[2])
	if err != nil {
		log.Fatalf("to: %v", err)
	}

	opts, err := waze.OptionsFromConfig(cfg.Waze)
	if err != nil {
		log.Fatalf("waze config: %v", err)
	}
	opts.Logger = logger
	client := waze.New(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan, err := client.Plan(ctx, from, to)
	if err != nil {
		log.Fatalf("plan: %v", err)
	}

	fmt.Println(summary(plan))
}

// parsePoint reads "lat,lon" through the same parser as locales.
func parsePoint(s string) (domain.Coordinate, error) {
	loc, err := domain.ParseLocale(s)
	if err != nil {
		return domain.Coordinate{}, err
	}
	if loc.Point == nil {
		return domain.Coordinate{}, fmt.Errorf("expected lat,lon, got %q", s)
	}
	return *loc.Point, nil
}

func summary(p *domain.TravelPlan) string {
	d := p.Duration()
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	out := fmt.Sprintf("%s km\n%d hours and %d minutes", formatKm(p.DistanceKm()), hours, minutes)
	if p.RouteName != "" {
		out = p.RouteName + "\n" + out
	}
	if p.IsToll {
		out += "\ntoll road"
	}
	return out
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}
