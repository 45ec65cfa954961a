package config

type MQTT struct {
	HOST        string `yaml:"host" envconfig:"MQTT_BROKER_HOST"`
	PORT        uint   `yaml:"port" envconfig:"MQTT_BROKER_PORT"`
	USER        string `yaml:"user" envconfig:"MQTT_BROKER_USER"`
	PASSWORD    string `yaml:"password" envconfig:"MQTT_BROKER_PASSWORD"`
	TopicPrefix string `yaml:"topic_prefix" envconfig:"MQTT_TOPIC_PREFIX"`
}

func (x *MQTT) Init() {
	x.HOST = ""
	x.PORT = 1883
	x.USER = ""
	x.PASSWORD = ""
	x.TopicPrefix = "map"
}

// Enabled reports whether a broker is configured.
func (x *MQTT) Enabled() bool {
	return x.HOST != ""
}
