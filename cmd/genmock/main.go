// Command genmock generates synthetic observation and elevation CSV fixtures
// for exercising the fusion pipeline without real survey data. Output is
// deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -obs-out testdata/observations.csv \
//	  -dem-out testdata/dem.csv \
//	  -count 200
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Western Lake Erie bounding box, roughly Toledo to Cleveland.
const (
	lonMin = -83.55
	lonMax = -81.60
	latMin = 41.45
	latMax = 41.95
)

var surveyStart = time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	obsOut := flag.String("obs-out", "", "output path for the observation CSV")
	demOut := flag.String("dem-out", "", "output path for the elevation sample CSV")
	count := flag.Int("count", 200, "number of observations to generate")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *obsOut == "" || *demOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -obs-out, -dem-out")
	}
	if *count < 1 {
		return fmt.Errorf("-count must be positive, got %d", *count)
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := writeObservations(*obsOut, *count, rng); err != nil {
		return fmt.Errorf("writing observations: %w", err)
	}
	log.Printf("wrote %d observations: %s", *count, *obsOut)

	if err := writeDEM(*demOut, *count, rng); err != nil {
		return fmt.Errorf("writing elevation samples: %w", err)
	}
	log.Printf("wrote elevation samples: %s", *demOut)

	return nil
}

// writeObservations emits survey rows with a mix of present, sentinel and
// empty elevations so missing-value paths get exercised downstream.
func writeObservations(path string, count int, rng *rand.Rand) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "longitude", "latitude", "date", "elevation", "cover_pct", "substrate"}); err != nil {
		return err
	}

	substrates := []string{"sand", "silt", "gravel", "clay"}
	for i := 0; i < count; i++ {
		lon := lonMin + rng.Float64()*(lonMax-lonMin)
		lat := latMin + rng.Float64()*(latMax-latMin)
		date := surveyStart.AddDate(0, 0, rng.Intn(120))

		// Lake-bottom elevations near the IGLD low water datum.
		elev := strconv.FormatFloat(170.0+rng.Float64()*5.0, 'f', 2, 64)
		switch rng.Intn(10) {
		case 0:
			elev = "-9999"
		case 1:
			elev = ""
		}

		row := []string{
			fmt.Sprintf("obs-%04d", i+1),
			strconv.FormatFloat(lon, 'f', 5, 64),
			strconv.FormatFloat(lat, 'f', 5, 64),
			date.Format(time.DateOnly),
			elev,
			strconv.Itoa(rng.Intn(101)),
			substrates[rng.Intn(len(substrates))],
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// writeDEM emits elevation samples for a subset of observation ids, with two
// survey-year columns so priority fallback is exercised.
func writeDEM(path string, count int, rng *rand.Rand) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "elev_2019", "elev_2016"}); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		// Leave roughly a quarter of observations without a sample.
		if rng.Intn(4) == 0 {
			continue
		}

		e2019 := strconv.FormatFloat(170.0+rng.Float64()*5.0, 'f', 2, 64)
		e2016 := strconv.FormatFloat(170.0+rng.Float64()*5.0, 'f', 2, 64)
		if rng.Intn(5) == 0 {
			e2019 = "-9999"
		}

		row := []string{
			fmt.Sprintf("obs-%04d", i+1),
			e2019,
			e2016,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
