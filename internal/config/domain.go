package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

// Domain настройки календаря, запросов, предложений и счетов.
type Domain struct {
	Calendar CalendarConfig `toml:"calendar"`
	Requests RequestsConfig `toml:"requests"`
	Offers   OffersConfig   `toml:"offers"`
	Fees     FeesConfig     `toml:"fees"`
}

type CalendarConfig struct {
	DefaultTimezone   string `toml:"default_timezone"`
	WorkingHoursStart int    `toml:"working_hours_start"`
	WorkingHoursEnd   int    `toml:"working_hours_end"`
	SlotMinutes       int    `toml:"slot_minutes"`
	UpcomingDays      int    `toml:"upcoming_days"`
	MaxRangeDays      int    `toml:"max_range_days"`
}

type RequestsConfig struct {
	TTL                 Duration `toml:"ttl"`
	ExpirySweepInterval Duration `toml:"expiry_sweep_interval"`
}

type OffersConfig struct {
	DefaultExpiryDays int `toml:"default_expiry_days"`
}

type FeesConfig struct {
	PlatformFeePercent float64 `toml:"platform_fee_percent"`
	Currency           string  `toml:"currency"`
	InvoiceDueDays     int     `toml:"invoice_due_days"`
}

// Duration time.Duration, читаемый из строки вида "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultDomain значения по умолчанию, если файла нет.
func DefaultDomain() Domain {
	return Domain{
		Calendar: CalendarConfig{
			DefaultTimezone:   "Australia/Sydney",
			WorkingHoursStart: 9,
			WorkingHoursEnd:   21,
			SlotMinutes:       60,
			UpcomingDays:      30,
			MaxRangeDays:      366,
		},
		Requests: RequestsConfig{
			TTL:                 Duration{168 * time.Hour},
			ExpirySweepInterval: Duration{10 * time.Minute},
		},
		Offers: OffersConfig{DefaultExpiryDays: 7},
		Fees: FeesConfig{
			PlatformFeePercent: 10,
			Currency:           "AUD",
			InvoiceDueDays:     30,
		},
	}
}

// LoadDomain читает TOML поверх значений по умолчанию. Отсутствующий файл не ошибка.
func LoadDomain(path string) (Domain, error) {
	d := DefaultDomain()
	if path == "" {
		return d, nil
	}
	if _, err := toml.DecodeFile(path, &d); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return d, nil
		}
		return d, fmt.Errorf("config: не удалось прочитать %s: %w", path, err)
	}
	return d, d.Validate()
}

// DecodeDomain разбирает TOML из строки.
func DecodeDomain(data string) (Domain, error) {
	d := DefaultDomain()
	if _, err := toml.Decode(data, &d); err != nil {
		return d, fmt.Errorf("config: некорректный TOML: %w", err)
	}
	return d, d.Validate()
}

func (d Domain) Validate() error {
	c := d.Calendar
	if c.WorkingHoursStart < 0 || c.WorkingHoursEnd > 24 || c.WorkingHoursStart >= c.WorkingHoursEnd {
		return fmt.Errorf("config: некорректные рабочие часы %d-%d", c.WorkingHoursStart, c.WorkingHoursEnd)
	}
	if c.SlotMinutes <= 0 || c.SlotMinutes > 24*60 {
		return fmt.Errorf("config: некорректная длина слота %d", c.SlotMinutes)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("config: неизвестная зона %q: %w", c.DefaultTimezone, err)
	}
	if d.Requests.TTL.Duration <= 0 {
		return fmt.Errorf("config: requests.ttl должен быть положительным")
	}
	if d.Requests.ExpirySweepInterval.Duration <= 0 {
		return fmt.Errorf("config: requests.expiry_sweep_interval должен быть положительным")
	}
	if d.Fees.PlatformFeePercent < 0 || d.Fees.PlatformFeePercent > 100 {
		return fmt.Errorf("config: fees.platform_fee_percent вне диапазона 0-100")
	}
	return nil
}

// Location зона календаря по умолчанию.
func (c CalendarConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (d Domain) withEnvOverrides() Domain {
	if v := getEnv("CALENDAR_DEFAULT_TIMEZONE", ""); v != "" {
		d.Calendar.DefaultTimezone = v
	}
	if v := getEnv("AVAILABILITY_REQUEST_TTL", ""); v != "" {
		d.Requests.TTL = Duration{mustParseDuration(v)}
	}
	if v := getEnv("PLATFORM_FEE_PERCENT", ""); v != "" {
		d.Fees.PlatformFeePercent = mustParseFloat(v)
	}
	if v := getEnv("OFFER_EXPIRY_DAYS", ""); v != "" {
		d.Offers.DefaultExpiryDays = int(mustParseInt64(v))
	}
	return d
}
