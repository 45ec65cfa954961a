package config

// Admin guards the override and reload endpoints. An empty secret disables
// the admin API.
type Admin struct {
	JWTSecret string `yaml:"jwt_secret" envconfig:"MAPCONFIG_JWT_SECRET"`
}

func (x *Admin) Init() {
	x.JWTSecret = ""
}

func (x *Admin) Enabled() bool {
	return x.JWTSecret != ""
}
