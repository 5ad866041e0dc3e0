package email

type SMTPConfig struct {
	Identity string
	Host     string
	Port     int
	UserName string
	Password string
}

type Config struct {
	SMTP SMTPConfig
}

var globalConfig = Config{}

func Init(config *Config) {
	globalConfig = *config
}

// Configured reports whether Init received an SMTP host.
func Configured() bool {
	return globalConfig.SMTP.Host != ""
}

func GenerateTestConfig() *Config {
	return &Config{SMTP: SMTPConfig{
		Identity: "ds-builder@localhost",
		Host:     "localhost",
		Port:     1025,
		UserName: "ds-builder@localhost",
	}}
}
