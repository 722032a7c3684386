// internal/workers/guest-messaging/generate-response/config.go
package generateresponse

import "time"

type Config struct {
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
