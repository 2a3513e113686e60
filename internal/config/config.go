package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Circulation CirculationConfig `yaml:"circulation"`
	Sweep       SweepConfig       `yaml:"sweep"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CirculationConfig holds loan and hold policy defaults. The per-media-kind
// fine policy table overrides these when a row matches; the values here are
// the role-based fallbacks.
type CirculationConfig struct {
	PickupWindow        time.Duration `yaml:"pickup_window"          env:"CIRC_PICKUP_WINDOW"          env-default:"48h"`
	StudentLoanLimit    int           `yaml:"student_loan_limit"     env:"CIRC_STUDENT_LOAN_LIMIT"     env-default:"5"`
	FacultyLoanLimit    int           `yaml:"faculty_loan_limit"     env:"CIRC_FACULTY_LOAN_LIMIT"     env-default:"7"`
	StudentLoanDays     int           `yaml:"student_loan_days"      env:"CIRC_STUDENT_LOAN_DAYS"      env-default:"14"`
	FacultyLoanDays     int           `yaml:"faculty_loan_days"      env:"CIRC_FACULTY_LOAN_DAYS"      env-default:"21"`
	DefaultDailyRate    string        `yaml:"default_daily_rate"     env:"CIRC_DEFAULT_DAILY_RATE"     env-default:"0.50"`
	DefaultGraceDays    int           `yaml:"default_grace_days"     env:"CIRC_DEFAULT_GRACE_DAYS"     env-default:"2"`
	DefaultMaxFine      string        `yaml:"default_max_fine"       env:"CIRC_DEFAULT_MAX_FINE"       env-default:"25.00"`
	DefaultReplacement  string        `yaml:"default_replacement"    env:"CIRC_DEFAULT_REPLACEMENT"    env-default:"45.00"`
}

// SweepConfig holds the timer interval and aging thresholds for the
// time-based sweep engine.
type SweepConfig struct {
	Interval       time.Duration `yaml:"interval"         env:"SWEEP_INTERVAL"         env-default:"5m"`
	DueSoonWindow  time.Duration `yaml:"due_soon_window"  env:"SWEEP_DUE_SOON_WINDOW"  env-default:"48h"`
	LostAfter      time.Duration `yaml:"lost_after"       env:"SWEEP_LOST_AFTER"       env-default:"672h"`
	SuspendAfter   time.Duration `yaml:"suspend_after"    env:"SWEEP_SUSPEND_AFTER"    env-default:"72h"`
	RoomEndWindow  time.Duration `yaml:"room_end_window"  env:"SWEEP_ROOM_END_WINDOW"  env-default:"30m"`
}
