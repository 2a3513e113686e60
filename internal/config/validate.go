package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Circulation.validate(); err != nil {
		return fmt.Errorf("circulation: %w", err)
	}
	if err := c.Sweep.validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}

func (c *CirculationConfig) validate() error {
	if c.PickupWindow <= 0 {
		return fmt.Errorf("pickup_window must be > 0 (got %v)", c.PickupWindow)
	}
	if c.StudentLoanLimit <= 0 || c.FacultyLoanLimit <= 0 {
		return fmt.Errorf("loan limits must be > 0 (got student=%d, faculty=%d)",
			c.StudentLoanLimit, c.FacultyLoanLimit)
	}
	if c.StudentLoanDays <= 0 || c.FacultyLoanDays <= 0 {
		return fmt.Errorf("loan days must be > 0 (got student=%d, faculty=%d)",
			c.StudentLoanDays, c.FacultyLoanDays)
	}
	if c.DefaultGraceDays < 0 {
		return fmt.Errorf("default_grace_days must be >= 0 (got %d)", c.DefaultGraceDays)
	}
	for field, raw := range map[string]string{
		"default_daily_rate":  c.DefaultDailyRate,
		"default_max_fine":    c.DefaultMaxFine,
		"default_replacement": c.DefaultReplacement,
	} {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if amount.IsNegative() {
			return fmt.Errorf("%s must be >= 0 (got %s)", field, amount)
		}
	}
	return nil
}

func (c *SweepConfig) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %v)", c.Interval)
	}
	if c.DueSoonWindow <= 0 {
		return fmt.Errorf("due_soon_window must be > 0 (got %v)", c.DueSoonWindow)
	}
	if c.LostAfter <= 0 {
		return fmt.Errorf("lost_after must be > 0 (got %v)", c.LostAfter)
	}
	if c.SuspendAfter <= 0 {
		return fmt.Errorf("suspend_after must be > 0 (got %v)", c.SuspendAfter)
	}
	return nil
}

// DailyRate returns the fallback daily fine rate as a decimal.
// Validate guarantees the stored string parses.
func (c *CirculationConfig) DailyRate() decimal.Decimal {
	return decimal.RequireFromString(c.DefaultDailyRate)
}

// MaxFine returns the fallback fine cap as a decimal.
func (c *CirculationConfig) MaxFine() decimal.Decimal {
	return decimal.RequireFromString(c.DefaultMaxFine)
}

// ReplacementFee returns the fallback lost-item replacement fee as a decimal.
func (c *CirculationConfig) ReplacementFee() decimal.Decimal {
	return decimal.RequireFromString(c.DefaultReplacement)
}
