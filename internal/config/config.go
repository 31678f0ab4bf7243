package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	// Loan lifecycle engine defaults the host supplies.
	GraceDaysDefault  int
	BasePricePct      float64
	MinIncrementPct   float64
	MinIncrementFloor float64
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvFloat(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "pawnshop"),
		MySQLUser: getenv("MYSQL_USER", "pawnshop"),
		MySQLPass: getenv("MYSQL_PASS", "pawnshop"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getenvInt("REDIS_DB", 0),

		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		GraceDaysDefault:  getenvInt("GRACE_DAYS_DEFAULT", 7),
		BasePricePct:      getenvFloat("BASE_PRICE_PCT", 70),
		MinIncrementPct:   getenvFloat("MIN_INCREMENT_PCT", 5),
		MinIncrementFloor: getenvFloat("MIN_INCREMENT_FLOOR", 50),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.GraceDaysDefault < 1 || c.GraceDaysDefault > 30 {
		return fmt.Errorf("GRACE_DAYS_DEFAULT %d outside [1, 30]", c.GraceDaysDefault)
	}
	if c.BasePricePct <= 0 || c.BasePricePct > 100 {
		return fmt.Errorf("BASE_PRICE_PCT %.2f outside (0, 100]", c.BasePricePct)
	}
	if c.MinIncrementPct < 0 || c.MinIncrementFloor < 0 {
		return errors.New("minimum increment settings must not be negative")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
