// internal/workers/guest-messaging/notify-escalation/config.go
package notifyescalation

import "time"

type Config struct {
	Timeout          time.Duration
	EmailEnabled     bool
	FromEmail        string
	SMSEnabled       bool
	UrgencyThreshold string
	AWSRegion        string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		EmailEnabled:     true,
		SMSEnabled:       true,
		UrgencyThreshold: UrgencyHigh,
		AWSRegion:        "eu-west-1",
	}
}
