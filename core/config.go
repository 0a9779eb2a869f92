package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the process-wide configuration. LoadConfig sets it once before
// anything else runs.
var Conf *Config

type Config struct {
	AppName   string
	Env       string // DEV (default), TEST, QA, PROD
	Debug     bool
	TestMode  bool
	Build     string
	SecretKey []byte

	DefaultFromEmail mail.Address
	SendgridApiKey   string
	RollbarToken     string

	// session
	SessionTTL     time.Duration
	TokenFile      string
	GenPasswordLen int

	Database DatabaseConfig
}

type DatabaseConfig struct {
	URI     string
	Name    string
	Timeout time.Duration
}

// LoadConfig reads defaults, an optional config/.env.<env> file and the
// environment (prefixed with the env name) into Conf.
func LoadConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "StudentMS")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "wary0-kh@ng$dung=cho&prod!(doi*ngay)#khi%trien^khai")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sessionTTL", 12*time.Hour)
	v.SetDefault("tokenFile", filepath.Join(Getwd(), ".session.json"))
	v.SetDefault("genPasswordLen", 12)
	v.SetDefault("dbURI", "mongodb://localhost:27017")
	v.SetDefault("dbName", "studentms")
	v.SetDefault("dbTimeout", 10*time.Second)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load config/.env.<env> if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		Build:            v.GetString("build"),
		SecretKey:        []byte(v.GetString("secretKey")),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SessionTTL:       v.GetDuration("sessionTTL"),
		TokenFile:        v.GetString("tokenFile"),
		GenPasswordLen:   v.GetInt("genPasswordLen"),
		Database: DatabaseConfig{
			URI:     v.GetString("dbURI"),
			Name:    v.GetString("dbName"),
			Timeout: v.GetDuration("dbTimeout"),
		},
	}
	return Conf
}

// Getwd returns the working directory of the running binary.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd: %v", err)
	}
	return wd
}
