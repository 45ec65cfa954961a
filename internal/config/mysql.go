package config

import (
	"strconv"

	"github.com/go-sql-driver/mysql"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Storage selects the database holding admin overrides. An empty driver
// disables persistence.
type Storage struct {
	Driver string `yaml:"driver" envconfig:"DB_DRIVER"`
	MySQL  MySQL  `yaml:"mysql"`
	SQLite SQLite `yaml:"sqlite"`
}

func (x *Storage) Init() {
	x.Driver = DriverSQLite
	x.MySQL.Init()
	x.SQLite.Init()
}

// DSN returns the data source name for the selected driver.
func (x *Storage) DSN() string {
	if x.Driver == DriverMySQL {
		return x.MySQL.GenConfig().FormatDSN()
	}
	return x.SQLite.Path
}

type MySQL struct {
	DATABASE string `yaml:"database" envconfig:"DB_DATABASE"`
	HOST     string `yaml:"host" envconfig:"DB_HOST"`
	PORT     uint   `yaml:"port" envconfig:"DB_PORT"`
	USERNAME string `yaml:"username" envconfig:"DB_USERNAME"`
	PASSWORD string `yaml:"password" envconfig:"DB_PASSWORD"`
}

func (x *MySQL) Init() {
	x.DATABASE = "mapconfig"
	x.HOST = "localhost"
	x.PASSWORD = ""
	x.USERNAME = "root"
	x.PORT = 3306
}

func (x *MySQL) GenConfig() *mysql.Config {
	sqlconfig := mysql.NewConfig()
	sqlconfig.User = x.USERNAME
	sqlconfig.Passwd = x.PASSWORD
	sqlconfig.DBName = x.DATABASE
	sqlconfig.Addr = x.HOST + ":" + strconv.FormatUint(uint64(x.PORT), 10)
	sqlconfig.Net = "tcp"
	sqlconfig.ParseTime = true
	return sqlconfig
}

type SQLite struct {
	Path string `yaml:"path" envconfig:"DB_SQLITE_PATH"`
}

func (x *SQLite) Init() {
	x.Path = "mapconfig.sqlite"
}
