package config

type Local struct {
	Address  string `yaml:"bind_address" envconfig:"MAPCONFIG_BIND_ADDRESS"`
	Port     uint   `yaml:"bind_port" envconfig:"MAPCONFIG_BIND_PORT"`
	LogLevel int    `yaml:"loglevel" envconfig:"MAPCONFIG_LOGLEVEL"`
	NodeName string `yaml:"node_name" envconfig:"MAPCONFIG_NODE_NAME"`
}

func (x *Local) Init() {
	x.LogLevel = 0
	x.Address = "0.0.0.0"
	x.Port = 4000
	x.NodeName = "mapconfig"
}
