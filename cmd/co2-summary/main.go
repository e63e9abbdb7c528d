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
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Fetching CO2 data from NOAA...")

	client := co2.NewClient(*dataURL)
	client.HTTPClient = &http.Client{Timeout: *timeout}

	series, err := client.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching CO2 data: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully parsed %d monthly records\n\n", series.Len())

	if err := report.CO2Summary(os.Stdout, series); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering summary: %v\n", err)
		os.Exit(1)
	}
}
