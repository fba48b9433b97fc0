package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	AuthIssuer  string   `mapstructure:"AUTH_ISSUER"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	MeetingProviderURL string `mapstructure:"MEETING_PROVIDER_URL"`

	Clinic Clinic `mapstructure:",squash"`
}

// Clinic holds the business knobs the booking engine treats as
// configuration rather than hard-coded rules: the daily slot template,
// roster generation, and the follow-up checkpoint policy.
type Clinic struct {
	SlotStartHour       int       `mapstructure:"CLINIC_SLOT_START_HOUR"`
	SlotMinutes         int       `mapstructure:"CLINIC_SLOT_MINUTES"`
	MorningSlots        int       `mapstructure:"CLINIC_MORNING_SLOTS"`
	AfternoonStartHour  int       `mapstructure:"CLINIC_AFTERNOON_START_HOUR"`
	AfternoonSlots      int       `mapstructure:"CLINIC_AFTERNOON_SLOTS"`
	GenerationDays      int       `mapstructure:"ROSTER_GENERATION_DAYS"`
	DoctorsPerShift     int       `mapstructure:"ROSTER_DOCTORS_PER_SHIFT"`
	FollowupServiceID   string    `mapstructure:"FOLLOWUP_SERVICE_ID"`
	FollowupCheckpoints []float64 `mapstructure:"FOLLOWUP_CHECKPOINTS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CLINIC_SLOT_START_HOUR", 7)
	v.SetDefault("CLINIC_SLOT_MINUTES", 60)
	v.SetDefault("CLINIC_MORNING_SLOTS", 4)
	v.SetDefault("CLINIC_AFTERNOON_START_HOUR", 13)
	v.SetDefault("CLINIC_AFTERNOON_SLOTS", 4)
	v.SetDefault("ROSTER_GENERATION_DAYS", 7)
	v.SetDefault("ROSTER_DOCTORS_PER_SHIFT", 2)
	v.SetDefault("FOLLOWUP_CHECKPOINTS", "0.5,1.0")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "AUTH_ISSUER", "CORS_ORIGINS", "MEETING_PROVIDER_URL",
		"CLINIC_SLOT_START_HOUR", "CLINIC_SLOT_MINUTES", "CLINIC_MORNING_SLOTS",
		"CLINIC_AFTERNOON_START_HOUR", "CLINIC_AFTERNOON_SLOTS",
		"ROSTER_GENERATION_DAYS", "ROSTER_DOCTORS_PER_SHIFT",
		"FOLLOWUP_SERVICE_ID", "FOLLOWUP_CHECKPOINTS",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.Clinic.FollowupCheckpoints == nil {
		cfg.Clinic.FollowupCheckpoints = parseCheckpoints(v.GetString("FOLLOWUP_CHECKPOINTS"))
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func parseCheckpoints(s string) []float64 {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%f", &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside of
// development a JWT secret or an external issuer must be configured so
// that real authentication is enforced, and the clinic template must
// describe at least one bookable slot.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" && c.AuthIssuer == "" {
		return fmt.Errorf("JWT_SECRET or AUTH_ISSUER must be set when ENV=%q; refusing to start without authentication", c.Env)
	}
	if c.Clinic.SlotMinutes <= 0 {
		return fmt.Errorf("CLINIC_SLOT_MINUTES must be positive, got %d", c.Clinic.SlotMinutes)
	}
	if c.Clinic.MorningSlots+c.Clinic.AfternoonSlots == 0 {
		return fmt.Errorf("slot template is empty: set CLINIC_MORNING_SLOTS or CLINIC_AFTERNOON_SLOTS")
	}
	if c.Clinic.DoctorsPerShift <= 0 {
		return fmt.Errorf("ROSTER_DOCTORS_PER_SHIFT must be positive, got %d", c.Clinic.DoctorsPerShift)
	}
	for _, f := range c.Clinic.FollowupCheckpoints {
		if f <= 0 || f > 1 {
			return fmt.Errorf("FOLLOWUP_CHECKPOINTS must be fractions in (0,1], got %v", f)
		}
	}
	// A missing follow-up service would make every treatment degrade to
	// permanent warnings; refuse to start rather than limp.
	if _, err := uuid.Parse(c.Clinic.FollowupServiceID); err != nil {
		return fmt.Errorf("FOLLOWUP_SERVICE_ID must be the UUID of the follow-up service: %w", err)
	}
	return nil
}
