package smartsearch

import "time"

type Config struct {
	Timeout  time.Duration
	AsOfYear int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
	}
}
