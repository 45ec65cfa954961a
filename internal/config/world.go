package config

import "time"

// Worlds points at the worlds document and the last-known-good cache.
type Worlds struct {
	File           string        `yaml:"file" envconfig:"MAPCONFIG_WORLDS_FILE"`
	CacheFile      string        `yaml:"cache_file" envconfig:"MAPCONFIG_CACHE_FILE"`
	ReloadDebounce time.Duration `yaml:"reload_debounce" envconfig:"MAPCONFIG_RELOAD_DEBOUNCE"`
}

func (x *Worlds) Init() {
	x.File = "worlds.yaml"
	x.CacheFile = "/var/lib/mapconfig/worlds.db"
	x.ReloadDebounce = 2 * time.Second
}
