package scoreadmissionchance

import "time"

type Config struct {
	Timeout time.Duration
	// AsOfYear anchors the admission stats window. Zero uses the latest year on record.
	AsOfYear int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
