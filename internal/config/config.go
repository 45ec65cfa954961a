package config

import (
	// Std
	"io"
	"os"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/logger"

	// Third-Party
	"github.com/kelseyhightower/envconfig"
	"github.com/pborman/getopt/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

// Config : structure to hold configuration
type Config struct {
	Settings Local   `yaml:"settings"`
	Worlds   Worlds  `yaml:"worlds"`
	Storage  Storage `yaml:"storage"`
	MQTT     MQTT    `yaml:"mqtt"`
	Influx   Influx  `yaml:"influx"`
	Admin    Admin   `yaml:"admin"`
}

func (x *Config) Init() {
	x.Settings.Init()
	x.Worlds.Init()
	x.Storage.Init()
	x.MQTT.Init()
	x.Influx.Init()
	x.Admin.Init()
}

const defaultConfigFileName = "config.yaml"

var log = logger.L()

func defConfig() *Config {
	var cfg Config
	cfg.Init()
	return &cfg
}

// opts are the command line overrides; they win over file and env.
type opts struct {
	configFile string
	worldsFile string
	logLevel   int

	worldsSet   bool
	logLevelSet bool
}

func readOpts() opts {
	o := opts{configFile: defaultConfigFileName}
	helpFlag := false
	getopt.Flag(&helpFlag, 'h', "display help")
	logLevel := getopt.Flag(&o.logLevel, 'l', "log level (-1 debug, 0 info, 1 warn)")
	getopt.FlagLong(&o.configFile, "config", 'c', "config file")
	worlds := getopt.FlagLong(&o.worldsFile, "worlds", 'w', "worlds file")

	getopt.Parse()
	if helpFlag {
		getopt.Usage()
		os.Exit(0)
	}
	o.logLevelSet = logLevel.Seen()
	o.worldsSet = worlds.Seen()
	return o
}

func (o opts) apply(cfg *Config) {
	if o.logLevelSet {
		cfg.Settings.LogLevel = o.logLevel
	}
	if o.worldsSet {
		cfg.Worlds.File = o.worldsFile
	}
}

func processError(err error) {
	log.Fatal(err)
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

func readFile(cfg *Config, filename string) error {
	if !fileExists(filename) {
		return nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return errors.WithMessage(err, "failed to open config file")
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return errors.WithMessagef(err, "failed to decode %s", filename)
	}
	return nil
}

func readEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return errors.WithMessage(err, "failed to process env")
	}
	return nil
}

func prettyPrint(cfg *Config) {
	c := *cfg
	c.Storage.MySQL.PASSWORD = redact(c.Storage.MySQL.PASSWORD)
	c.MQTT.PASSWORD = redact(c.MQTT.PASSWORD)
	c.Influx.TOKEN = redact(c.Influx.TOKEN)
	c.Admin.JWTSecret = redact(c.Admin.JWTSecret)

	d, _ := yaml.Marshal(&c)
	log.Infof("--- Config ---\n%s\n\n", string(d))
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// Load builds the configuration from defaults, the given file and the
// environment, in that order.
func Load(filename string) (*Config, error) {
	cfg := defConfig()
	if err := readFile(cfg, filename); err != nil {
		return nil, err
	}
	if err := readEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig : get config file, env and command line
func GetConfig() *Config {
	o := readOpts()

	cfg, err := Load(o.configFile)
	if err != nil {
		processError(err)
	}
	o.apply(cfg)

	logger.SetLevel(zapcore.Level(cfg.Settings.LogLevel))
	prettyPrint(cfg)

	return cfg
}
