// Command co2-fit fits polynomial growth models to the Mauna Loa CO2
// monthly-mean series and compares them by information criteria. The series
// comes from the NOAA feed or, with -from-db, from the co2_monthly table.
package main

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/remoteclimate/pkg/co2"
)

// ModelType identifies one candidate growth model.
type ModelType string

const (
	ModelConstant  ModelType = "constant"
	ModelLinear    ModelType = "linear"
	ModelQuadratic ModelType = "quadratic"
	ModelCubic     ModelType = "cubic"
)

// Every candidate is a polynomial in years-since-base; the constant model is
// simply degree zero.
var candidateModels = []struct {
	Type   ModelType
	Name   string
	Degree int
}{
	{ModelConstant, "Constant", 0},
	{ModelLinear, "Linear", 1},
	{ModelQuadratic, "Quadratic", 2},
	{ModelCubic, "Cubic", 3},
}

// FitResult holds one fitted model and its quality metrics.
type FitResult struct {
	ModelType            ModelType
	ModelName            string
	BaseYear             float64
	Coefficients         []float64 // ppm = c0 + c1*t + c2*t² + ... with t in years since BaseYear
	RSquared             float64
	AdjustedRSquared     float64
	MeanAbsoluteError    float64
	RootMeanSquaredError float64
	AIC                  float64
	BIC                  float64
	SampleCount          int
	YearRange            [2]float64
	PPMRange             [2]float64
}

// ComparisonResults collects every fit plus the winner under each criterion.
type ComparisonResults struct {
	Models    []FitResult
	BestByR2  FitResult
	BestByAIC FitResult
	BestByBIC FitResult
}

func main() {
	var (
		dataURL   = flag.String("url", co2.DefaultDataURL, "CO2 monthly-mean feed URL")
		timeout   = flag.Duration("timeout", co2.DefaultTimeout, "HTTP fetch timeout")
		fromDB    = flag.Bool("from-db", false, "Read the series from TimescaleDB instead of the feed")
		dbHost    = flag.String("db-host", "localhost", "Database host")
		dbPort    = flag.Int("db-port", 5432, "Database port")
		dbUser    = flag.String("db-user", "postgres", "Database user")
		dbPass    = flag.String("db-pass", "", "Database password")
		dbName    = flag.String("db-name", "climate", "Database name")
		window    = flag.Int("window", 0, "Fit only the trailing N years (0 = whole record)")
		csvOutput = flag.String("csv", "", "Optional CSV output file path")
	)
	flag.Parse()

	var series *co2.Series
	var err error
	if *fromDB {
		series, err = loadSeriesFromDB(*dbHost, *dbPort, *dbUser, *dbPass, *dbName)
	} else {
		series, err = loadSeriesFromFeed(*dataURL, *timeout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading CO2 series: %v\n", err)
		os.Exit(1)
	}

	records := windowRecords(series.Records, *window)
	if len(records) < 10 {
		fmt.Fprintf(os.Stderr, "at least 10 monthly records are needed to fit; got %d\n", len(records))
		os.Exit(1)
	}

	fmt.Print("CO2 growth model fit\n--------------------\n\n")
	if *fromDB {
		fmt.Printf("Input: co2_monthly table at %s:%d/%s\n", *dbHost, *dbPort, *dbName)
	} else {
		fmt.Printf("Input: %s\n", *dataURL)
	}
	windowLabel := "whole record"
	if *window > 0 {
		windowLabel = fmt.Sprintf("trailing %d years", *window)
	}
	fmt.Printf("Fitting %d monthly records (%s to %s), %s\n\n",
		len(records), records[0].Date(), records[len(records)-1].Date(), windowLabel)

	results := compareModels(records)

	displayComparison(results)
	displayBestModelDetails(results.BestByAIC)
	displayProjections(results.BestByAIC)

	if *csvOutput != "" {
		if err := exportCSV(*csvOutput, records, results.BestByAIC); err != nil {
			fmt.Fprintf(os.Stderr, "writing residuals CSV: %v\n", err)
		} else {
			fmt.Printf("\nResiduals written to %s\n", *csvOutput)
		}
	}
}

func loadSeriesFromFeed(dataURL string, timeout time.Duration) (*co2.Series, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := co2.NewClient(dataURL)
	client.HTTPClient = &http.Client{Timeout: timeout}
	return client.Fetch(ctx)
}

func loadSeriesFromDB(host string, port int, user, pass, name string) (*co2.Series, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, pass, name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to the database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging the database: %w", err)
	}

	query := `
		SELECT year, month, decimal_date, monthly_average, deseasonalized, num_days, std_dev, uncertainty
		FROM co2_monthly
		ORDER BY decimal_date
	`
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying co2_monthly: %w", err)
	}
	defer rows.Close()

	series := &co2.Series{}
	for rows.Next() {
		var r co2.Record
		if err := rows.Scan(&r.Year, &r.Month, &r.DecimalDate, &r.MonthlyAverage,
			&r.Deseasonalized, &r.NumDays, &r.StdDev, &r.Uncertainty); err != nil {
			return nil, fmt.Errorf("scanning co2_monthly row: %w", err)
		}
		series.Records = append(series.Records, r)
	}
	return series, rows.Err()
}

// windowRecords returns the trailing window in whole years, or the full
// record when years is zero. Records are ordered by decimal date.
func windowRecords(records []co2.Record, years int) []co2.Record {
	if years <= 0 || len(records) == 0 {
		return records
	}
	cutoff := records[len(records)-1].Year - years
	i := sort.Search(len(records), func(i int) bool { return records[i].Year >= cutoff })
	return records[i:]
}

// compareModels fits every candidate and picks winners by R², AIC and BIC.
func compareModels(records []co2.Record) ComparisonResults {
	// Time is measured in years since the first fitted record, keeping the
	// Vandermonde matrix well conditioned.
	baseYear := records[0].DecimalDate
	years := make([]float64, len(records))
	ppms := make([]float64, len(records))
	for i, r := range records {
		years[i] = r.DecimalDate - baseYear
		ppms[i] = r.MonthlyAverage
	}

	var results ComparisonResults
	for _, spec := range candidateModels {
		fit, err := fitModel(spec.Type, spec.Name, spec.Degree, years, ppms, baseYear)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fitting the %s model: %v\n", spec.Name, err)
			continue
		}
		results.Models = append(results.Models, fit)
	}

	results.BestByR2 = slices.MaxFunc(results.Models, func(a, b FitResult) int {
		return cmp.Compare(a.RSquared, b.RSquared)
	})
	results.BestByAIC = slices.MinFunc(results.Models, func(a, b FitResult) int {
		return cmp.Compare(a.AIC, b.AIC)
	})
	results.BestByBIC = slices.MinFunc(results.Models, func(a, b FitResult) int {
		return cmp.Compare(a.BIC, b.BIC)
	})

	return results
}

func fitModel(modelType ModelType, name string, degree int, years, ppms []float64, baseYear float64) (FitResult, error) {
	coeff, err := polyFit(years, ppms, degree)
	if err != nil {
		return FitResult{}, err
	}

	result := FitResult{
		ModelType:    modelType,
		ModelName:    name,
		BaseYear:     baseYear,
		Coefficients: coeff,
		SampleCount:  len(ppms),
		YearRange:    [2]float64{baseYear + slices.Min(years), baseYear + slices.Max(years)},
		PPMRange:     [2]float64{slices.Min(ppms), slices.Max(ppms)},
	}
	result.fillMetrics(years, ppms)
	return result, nil
}

// polyFit solves the least-squares polynomial of the given degree via QR
// decomposition of the Vandermonde matrix. Degree zero reduces to the mean.
func polyFit(x, y []float64, degree int) ([]float64, error) {
	n := len(y)
	X := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		for j := 0; j <= degree; j++ {
			X.Set(i, j, v)
			v *= x[i]
		}
	}

	var qr mat.QR
	qr.Factorize(X)

	solved := mat.NewVecDense(degree+1, nil)
	if err := qr.SolveVecTo(solved, false, mat.NewVecDense(n, y)); err != nil {
		return nil, err
	}

	coeff := make([]float64, degree+1)
	for i := range coeff {
		coeff[i] = solved.AtVec(i)
	}
	return coeff, nil
}

// fillMetrics computes the residual-based quality measures in one pass.
// AIC and BIC are n·ln(SSE/n) plus their respective parameter penalties.
func (r *FitResult) fillMetrics(x, y []float64) {
	n := float64(len(y))
	meanY := stat.Mean(y, nil)

	var ssTot, ssRes, sumAbs float64
	for i := range y {
		resid := y[i] - evalPoly(r.Coefficients, x[i])
		ssTot += (y[i] - meanY) * (y[i] - meanY)
		ssRes += resid * resid
		sumAbs += math.Abs(resid)
	}

	if ssTot > 0 {
		r.RSquared = 1 - ssRes/ssTot
	}
	k := float64(len(r.Coefficients))
	if n-k-1 > 0 {
		r.AdjustedRSquared = 1 - ((1-r.RSquared)*(n-1))/(n-k-1)
	}
	r.MeanAbsoluteError = sumAbs / n
	r.RootMeanSquaredError = math.Sqrt(ssRes / n)

	if ssRes <= 0 {
		r.AIC = math.Inf(1)
		r.BIC = math.Inf(1)
		return
	}
	r.AIC = 2*k + n*math.Log(ssRes/n)
	r.BIC = k*math.Log(n) + n*math.Log(ssRes/n)
}

// evalPoly evaluates the polynomial at t by Horner's rule.
func evalPoly(coeff []float64, t float64) float64 {
	v := 0.0
	for i := len(coeff) - 1; i >= 0; i-- {
		v = v*t + coeff[i]
	}
	return v
}

func displayComparison(results ComparisonResults) {
	fmt.Print("Model comparison, best AIC first\n\n")

	models := slices.Clone(results.Models)
	slices.SortFunc(models, func(a, b FitResult) int { return cmp.Compare(a.AIC, b.AIC) })

	fmt.Printf("%-15s | %8s | %8s | %9s | %10s | %10s\n", "Model", "R²", "Adj R²", "RMSE(ppm)", "AIC", "BIC")
	fmt.Printf("----------------+----------+----------+-----------+------------+------------\n")

	for _, m := range models {
		marker := ""
		if m.ModelType == results.BestByAIC.ModelType {
			marker = "  [selected]"
		}
		fmt.Printf("%-15s | %8.4f | %8.4f | %9.2f | %10.2f | %10.2f%s\n",
			m.ModelName, m.RSquared, m.AdjustedRSquared, m.RootMeanSquaredError, m.AIC, m.BIC, marker)
	}

	if results.BestByAIC.ModelType != results.BestByBIC.ModelType {
		fmt.Printf("\nBIC disagrees and would pick %s; it penalizes extra terms harder.\n", results.BestByBIC.ModelName)
	}

	if r2 := results.BestByAIC.RSquared; r2 < 0.3 {
		fmt.Printf("\n⚠ R² is only %.4f; the window may be too short for a stable trend\n", r2)
	} else if r2 < 0.7 {
		fmt.Printf("\nℹ R² = %.4f; the seasonal cycle dominates a window this short\n", r2)
	} else {
		fmt.Printf("\n✓ R² = %.4f\n", r2)
	}
	fmt.Println()
}

// modelEquation renders the fitted polynomial, e.g.
// "co2 = 315.42 + 1.5432×t + 0.012345×t²".
func modelEquation(model FitResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "co2 = %.2f", model.Coefficients[0])
	powers := []string{"", "t", "t²", "t³"}
	for i, c := range model.Coefficients[1:] {
		fmt.Fprintf(&b, " %+.*f×%s", 4+2*i, c, powers[i+1])
	}
	return b.String()
}

func displayBestModelDetails(model FitResult) {
	fmt.Printf("Selected model: %s\n", model.ModelName)
	fmt.Printf("  %s\n", modelEquation(model))
	fmt.Printf("  (t in years since %.1f, co2 in ppm)\n\n", model.BaseYear)

	fmt.Printf("Fit quality over %d samples, %.1f to %.1f (%.2f to %.2f ppm):\n",
		model.SampleCount, model.YearRange[0], model.YearRange[1], model.PPMRange[0], model.PPMRange[1])
	fmt.Printf("  R²      %8.4f\n", model.RSquared)
	fmt.Printf("  adj R²  %8.4f\n", model.AdjustedRSquared)
	fmt.Printf("  RMSE    %8.2f ppm\n", model.RootMeanSquaredError)
	fmt.Printf("  MAE     %8.2f ppm\n\n", model.MeanAbsoluteError)
}

func displayProjections(model FitResult) {
	// A flat model never crosses anything
	if model.ModelType == ModelConstant {
		return
	}

	fmt.Printf("Projections (extrapolating the fitted model):\n")
	lastYear := model.YearRange[1]
	for _, year := range []float64{2030, 2040, 2050} {
		if year <= lastYear {
			continue
		}
		ppm := evalPoly(model.Coefficients, year-model.BaseYear)
		fmt.Printf("  %4.0f: %7.2f ppm\n", year, ppm)
	}

	// First calendar year the model reaches each future milestone
	for _, threshold := range []float64{450, 500} {
		found := false
		for year := math.Ceil(lastYear); year <= model.BaseYear+150; year++ {
			if evalPoly(model.Coefficients, year-model.BaseYear) >= threshold {
				fmt.Printf("  Model reaches %.0f ppm in %.0f\n", threshold, year)
				found = true
				break
			}
		}
		if !found {
			fmt.Printf("  Model does not reach %.0f ppm within 150 years\n", threshold)
		}
	}
	fmt.Println()
}

func exportCSV(path string, records []co2.Record, model FitResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"year", "month", "decimal_date", "co2_ppm", "fitted_ppm", "residual_ppm"}); err != nil {
		return err
	}
	for _, r := range records {
		fitted := evalPoly(model.Coefficients, r.DecimalDate-model.BaseYear)
		row := []string{
			fmt.Sprintf("%d", r.Year),
			fmt.Sprintf("%d", r.Month),
			fmt.Sprintf("%.4f", r.DecimalDate),
			fmt.Sprintf("%.2f", r.MonthlyAverage),
			fmt.Sprintf("%.2f", fitted),
			fmt.Sprintf("%.2f", r.MonthlyAverage-fitted),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
