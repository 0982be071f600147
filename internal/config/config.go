package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BrainPath string
	LogLevel  string

	Alpha   float64
	Gamma   float64
	Epsilon float64

	Regime      string
	Episodes    int
	LearnerSide string
	ReportEvery int
	Seed        uint64
	Resume      bool
	ChartPath   string
	TrainerAddr string
	ServerAddr  string
	GameLog     string
}

func Default() Config {
	return Config{
		BrainPath:   "tictactoe_brain.gob",
		LogLevel:    "info",
		Alpha:       0.5,
		Gamma:       0.9,
		Epsilon:     0.1,
		Regime:      "fixed",
		LearnerSide: "O",
		ReportEvery: 1000,
		ServerAddr:  "127.0.0.1:5000",
	}
}

// Load reads an optional .env file and then the process environment.
// Unparseable values fall back to their defaults.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)

	d := Default()
	return Config{
		BrainPath:   getenv("BRAIN_PATH", d.BrainPath),
		LogLevel:    getenv("LOG_LEVEL", d.LogLevel),
		Alpha:       getenvFloat("QL_ALPHA", d.Alpha),
		Gamma:       getenvFloat("QL_GAMMA", d.Gamma),
		Epsilon:     getenvFloat("QL_EPSILON", d.Epsilon),
		Regime:      getenv("TRAIN_REGIME", d.Regime),
		Episodes:    getenvInt("TRAIN_EPISODES", d.Episodes),
		LearnerSide: getenv("TRAIN_LEARNER_SIDE", d.LearnerSide),
		ReportEvery: getenvInt("TRAIN_REPORT_EVERY", d.ReportEvery),
		Seed:        getenvUint("TRAIN_SEED", d.Seed),
		Resume:      getenvBool("TRAIN_RESUME", d.Resume),
		ChartPath:   getenv("TRAIN_CHART_PATH", d.ChartPath),
		TrainerAddr: getenv("TRAINER_API_ADDR", d.TrainerAddr),
		ServerAddr:  getenv("SERVER_ADDR", d.ServerAddr),
		GameLog:     getenv("GAME_LOG", d.GameLog),
	}
}

func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("QL_ALPHA must be in (0, 1], got %v", c.Alpha)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("QL_GAMMA must be in [0, 1], got %v", c.Gamma)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("QL_EPSILON must be in [0, 1], got %v", c.Epsilon)
	}
	if c.BrainPath == "" {
		return fmt.Errorf("BRAIN_PATH must not be empty")
	}
	return nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getenvUint(key string, fallback uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}
