package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/domain"
)

// Default western Lake Erie gauges. STATION_IDS selects which CO-OPS
// stations are queried; STATION_NAME_IDS fixes the canonical integer ids
// derived from their display names.
const (
	defaultStationIDs     = "9063085,9063079,9063063,9063090"
	defaultStationNameIDs = "Toledo:1,Marblehead:2,Cleveland:3,Fermi Power Plant:4"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	ObsCSV     string
	DEMCSV     string
	DEMColumns []string
	OutCSV     string

	CoopsBaseURL   string
	CoopsTimeout   time.Duration
	CoopsDatum     string
	CoopsCacheSize int

	StationIDs   []string
	StationNames domain.StationIDMap
	NearestK     int
	FetchWorkers int

	// Optional fetch range override; zero values mean "derive from the
	// observation dates".
	StartDate time.Time
	EndDate   time.Time

	ElevationUnits  string
	WaterLevelUnits string

	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment (and a local .env file when
// present), applying defaults where unset. Unit declarations are checked
// here: a mismatch is fatal before any fetch or depth computation.
func Load() (*Config, error) {
	_ = godotenv.Load()

	coopsTimeout, err := parseDuration("COOPS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	nameIDs, err := parseStationNameIDs(envOrDefault("STATION_NAME_IDS", defaultStationNameIDs))
	if err != nil {
		return nil, err
	}

	startDate, err := parseDate("START_DATE")
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate("END_DATE")
	if err != nil {
		return nil, err
	}

	brokers := parseList(os.Getenv("KAFKA_BROKERS"))
	sinkTopic := os.Getenv("KAFKA_SINK_TOPIC")

	cfg := &Config{
		ObsCSV:     os.Getenv("OBS_CSV"),
		DEMCSV:     os.Getenv("DEM_CSV"),
		DEMColumns: parseList(envOrDefault("DEM_COLUMNS", "elev_2019,elev_2016")),
		OutCSV:     envOrDefault("OUT_CSV", "fused_depths.csv"),

		CoopsBaseURL:   envOrDefault("COOPS_BASE_URL", "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"),
		CoopsTimeout:   coopsTimeout,
		CoopsDatum:     envOrDefault("COOPS_DATUM", "IGLD"),
		CoopsCacheSize: parsePositiveInt("COOPS_CACHE_SIZE", 256),

		StationIDs:   parseList(envOrDefault("STATION_IDS", defaultStationIDs)),
		StationNames: nameIDs,
		NearestK:     parsePositiveInt("NEAREST_K", 4),
		FetchWorkers: parsePositiveInt("FETCH_WORKERS", 4),

		StartDate: startDate,
		EndDate:   endDate,

		ElevationUnits:  envOrDefault("ELEVATION_UNITS", "m"),
		WaterLevelUnits: envOrDefault("WATER_LEVEL_UNITS", "m"),

		KafkaBrokers:   brokers,
		KafkaSinkTopic: sinkTopic,
		KafkaEnabled:   len(brokers) > 0 && sinkTopic != "",

		HTTPAddr:  os.Getenv("HTTP_ADDR"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.ObsCSV == "" {
		return nil, errors.New("OBS_CSV is required")
	}
	if len(cfg.StationIDs) == 0 {
		return nil, errors.New("STATION_IDS is required")
	}
	if err := cfg.StationNames.Validate(); err != nil {
		return nil, fmt.Errorf("STATION_NAME_IDS: %w", err)
	}
	if err := domain.CheckUnits(cfg.WaterLevelUnits, cfg.ElevationUnits); err != nil {
		return nil, err
	}
	if !cfg.StartDate.IsZero() && !cfg.EndDate.IsZero() && cfg.EndDate.Before(cfg.StartDate) {
		return nil, errors.New("END_DATE precedes START_DATE")
	}
	if cfg.DEMCSV != "" && len(cfg.DEMColumns) == 0 {
		return nil, errors.New("DEM_CSV is set but DEM_COLUMNS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseDate(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %q (want YYYY-MM-DD)", key, s)
	}
	return t, nil
}

// parseStationNameIDs parses "Name:id,Name:id" into a StationIDMap. Names
// may contain spaces; ids must be positive integers.
func parseStationNameIDs(s string) (domain.StationIDMap, error) {
	m := make(domain.StationIDMap)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, idStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid STATION_NAME_IDS entry %q (want Name:id)", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, fmt.Errorf("invalid station id in %q: %w", pair, err)
		}
		m[strings.TrimSpace(name)] = id
	}
	return m, nil
}
