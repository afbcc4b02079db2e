package config

import "time"

type Scanner struct {
	Interval time.Duration `env:"SCANNER_INTERVAL" envDefault:"30m"`
}
