package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (default) | TEST | QA | PROD
		Build            string
		Debug            bool
		TestMode         bool
		DefaultFromEmail string

		Server     ServerConfig
		Database   DatabaseConfig
		Scheduling SchedulingConfig

		SendgridAPIKey string
		RollbarToken   string
	}

	ServerConfig struct {
		Host            string
		APIAddress      string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Host       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	// SchedulingConfig carries the school-day window and the room catalog.
	// Rooms are listed in booking priority order; first-fit room search
	// walks this list as-is.
	SchedulingConfig struct {
		WorkDayStart string
		WorkDayEnd   string
		Rooms        []string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.apiAddress", ":8080")
	v.SetDefault("server.debugHost", "localhost:9090")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.name", "darasa")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("scheduling.workDayStart", "08:00")
	v.SetDefault("scheduling.workDayEnd", "17:00")
	v.SetDefault("scheduling.rooms", []string{
		"Room 101", "Room 102", "Room 103", "Room 201", "Room 202", "Lab 1",
	})

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			APIAddress:      v.GetString("server.apiAddress"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Host:       v.GetString("database.host"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Scheduling: SchedulingConfig{
			WorkDayStart: v.GetString("scheduling.workDayStart"),
			WorkDayEnd:   v.GetString("scheduling.workDayEnd"),
			Rooms:        v.GetStringSlice("scheduling.rooms"),
		},
		SendgridAPIKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),
	}
}

// DatabaseDSN builds the postgres connection string.
func (c *Config) DatabaseDSN() string {
	sslMode := "require"
	if c.Database.DisableTLS {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s dbname=%s user=%s password=%s sslmode=%s",
		c.Database.Host, c.Database.Name, c.Database.User, c.Database.Password, sslMode,
	)
}
