package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/chrissnell/remoteclimate/internal/report"
	"github.com/chrissnell/remoteclimate/pkg/co2"
)

func main() {
	var (
		dataURL = flag.String("url", co2.DefaultDataURL, "CO2 monthly-mean feed URL")
		timeout = flag.Duration("timeout", co2.DefaultTimeout, "HTTP fetch timeout")
		limit   = flag.Int("limit", 0, "Limit the table to the most recent N rows (0 = all)")
		yearly  = flag.Bool("yearly", false, "Print yearly averages instead of the monthly table")
		recent  = flag.Int("recent", 0, "Print only the most recent N months")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := co2.NewClient(*dataURL)
	client.HTTPClient = &http.Client{Timeout: *timeout}

	series, err := client.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching CO2 data: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *yearly:
		err = report.CO2Yearly(os.Stdout, series.YearlyMeans(0, 0))
	case *recent > 0:
		err = report.CO2Recent(os.Stdout, series.Recent(*recent))
	default:
		err = report.CO2Table(os.Stdout, series, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering table: %v\n", err)
		os.Exit(1)
	}
}
