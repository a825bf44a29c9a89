package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FineRules holds the per-grade requirement tables and penalty constants the
// fine engine computes from. Data, not code: everything here can be overridden
// through the environment.
type FineRules struct {
	SemNotReadPenalty     int64
	LabPenalty            int64
	FacPenalty            int64
	InitialStepOblStudy   int64
	StepOblStudy          int64
	OblStudyNeeded        int
	OblStudyNeededEquator int
	LabPassNeeded         map[int]int // grade -> required labs
	LabPassNeededDefault  int
	LabPassNeededEquator  int
	FacPassNeeded         map[int]int // grade -> required faculty passes
	FacPassNeededDefault  int
	LecturePenaltyInitial int64
	LecturePenaltyStep    int64
}

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret                  string
	JWTExpiryDuration          time.Duration
	JWTIssuer                  string
	RefreshTokenExpiryDuration time.Duration

	// External OAuth Providers
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendBaseURL    string

	// Camp economy parameters
	DailyTax     string // decimal string, parsed by the assessment service
	InitialMoney string // starting balance granted at registration
	Fines        FineRules
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "12h")
	viper.SetDefault("JWT_ISSUER", "camp-bank-backend")
	viper.SetDefault("REFRESH_TOKEN_EXPIRY_DURATION", "168h")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")

	viper.SetDefault("DAILY_TAX", "1")
	viper.SetDefault("INITIAL_MONEY", "80")
	viper.SetDefault("SEM_NOT_READ_PENALTY", 50)
	viper.SetDefault("LAB_PENALTY", 30)
	viper.SetDefault("FAC_PENALTY", 30)
	viper.SetDefault("OBL_STUDY_INITIAL_STEP", 5)
	viper.SetDefault("OBL_STUDY_STEP", 5)
	viper.SetDefault("OBL_STUDY_NEEDED", 4)
	viper.SetDefault("OBL_STUDY_NEEDED_EQUATOR", 2)
	viper.SetDefault("LAB_PASS_NEEDED", "5:2,6:2,7:3,8:3")
	viper.SetDefault("LAB_PASS_NEEDED_DEFAULT", 2)
	viper.SetDefault("LAB_PASS_NEEDED_EQUATOR", 1)
	viper.SetDefault("FAC_PASS_NEEDED", "5:1,6:1,7:1,8:1")
	viper.SetDefault("FAC_PASS_NEEDED_DEFAULT", 1)
	viper.SetDefault("LECTURE_PENALTY_INITIAL", 10)
	viper.SetDefault("LECTURE_PENALTY_STEP", 10)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTExpiryDuration = viper.GetDuration("JWT_EXPIRY_DURATION")
	if cfg.JWTExpiryDuration <= 0 {
		cfg.JWTExpiryDuration = 12 * time.Hour
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.RefreshTokenExpiryDuration = viper.GetDuration("REFRESH_TOKEN_EXPIRY_DURATION")
	if cfg.RefreshTokenExpiryDuration <= 0 {
		cfg.RefreshTokenExpiryDuration = 7 * 24 * time.Hour
	}

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")

	cfg.DailyTax = viper.GetString("DAILY_TAX")
	cfg.InitialMoney = viper.GetString("INITIAL_MONEY")
	cfg.Fines = FineRules{
		SemNotReadPenalty:     viper.GetInt64("SEM_NOT_READ_PENALTY"),
		LabPenalty:            viper.GetInt64("LAB_PENALTY"),
		FacPenalty:            viper.GetInt64("FAC_PENALTY"),
		InitialStepOblStudy:   viper.GetInt64("OBL_STUDY_INITIAL_STEP"),
		StepOblStudy:          viper.GetInt64("OBL_STUDY_STEP"),
		OblStudyNeeded:        viper.GetInt("OBL_STUDY_NEEDED"),
		OblStudyNeededEquator: viper.GetInt("OBL_STUDY_NEEDED_EQUATOR"),
		LabPassNeeded:         parseGradeTable(viper.GetString("LAB_PASS_NEEDED")),
		LabPassNeededDefault:  viper.GetInt("LAB_PASS_NEEDED_DEFAULT"),
		LabPassNeededEquator:  viper.GetInt("LAB_PASS_NEEDED_EQUATOR"),
		FacPassNeeded:         parseGradeTable(viper.GetString("FAC_PASS_NEEDED")),
		FacPassNeededDefault:  viper.GetInt("FAC_PASS_NEEDED_DEFAULT"),
		LecturePenaltyInitial: viper.GetInt64("LECTURE_PENALTY_INITIAL"),
		LecturePenaltyStep:    viper.GetInt64("LECTURE_PENALTY_STEP"),
	}

	return cfg, nil
}

// parseGradeTable parses "grade:count,grade:count" pairs. Malformed pairs are
// skipped with a warning; lookups fall back to the configured default.
func parseGradeTable(raw string) map[int]int {
	table := make(map[int]int)
	if raw == "" {
		return table
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			log.Printf("Warning: skipping malformed grade table entry %q\n", pair)
			continue
		}
		grade, err1 := strconv.Atoi(parts[0])
		count, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			log.Printf("Warning: skipping malformed grade table entry %q\n", pair)
			continue
		}
		table[grade] = count
	}
	return table
}

// LabNeeded returns the required lab count for a grade.
func (r FineRules) LabNeeded(grade int) int {
	if needed, ok := r.LabPassNeeded[grade]; ok {
		return needed
	}
	return r.LabPassNeededDefault
}

// FacNeeded returns the required faculty pass count for a grade.
func (r FineRules) FacNeeded(grade int) int {
	if needed, ok := r.FacPassNeeded[grade]; ok {
		return needed
	}
	return r.FacPassNeededDefault
}
