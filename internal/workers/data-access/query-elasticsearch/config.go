package queryelasticsearch

import "time"

type Config struct {
	Timeout       time.Duration
	ProgramsIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		ProgramsIndex: "programs",
	}
}
