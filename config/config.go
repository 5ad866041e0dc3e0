package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"autograph-ds-builder/utils"
)

type VocabConfig struct {
	Path         string `mapstructure:"path"`
	DrugBankMeta string `mapstructure:"drugbank_meta"`
	DrugBankDDI  string `mapstructure:"drugbank_ddi"`
}

type LinkConfig struct {
	Corpus        string `mapstructure:"corpus"`
	MinSentLen    int    `mapstructure:"min_sent_len"`
	MaxSentLen    int    `mapstructure:"max_sent_len"`
	Separators    string `mapstructure:"separators"`
	CaseSensitive bool   `mapstructure:"case_sensitive"`
	Boundary      string `mapstructure:"boundary"`
	DFA           bool   `mapstructure:"dfa"`
	Workers       int    `mapstructure:"workers"`
	BatchSize     int    `mapstructure:"batch_size"`
	Distributed   bool   `mapstructure:"distributed"`
}

type SpillConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type PruneConfig struct {
	MinRelGroup     int `mapstructure:"min_rel_group"`
	MaxRelGroup     int `mapstructure:"max_rel_group"`
	NegativePercent int `mapstructure:"negative_percent"`
}

type BagConfig struct {
	MaxBagSize int  `mapstructure:"max_bag_size"`
	KTag       bool `mapstructure:"k_tag"`
	ExpandRels bool `mapstructure:"expand_rels"`
}

type SplitConfig struct {
	TestPercent int `mapstructure:"test_percent"`
	DevPercent  int `mapstructure:"dev_percent"`
}

type LoggingConfig struct {
	ConsoleLevel string `mapstructure:"console_level"`
	FileLevel    string `mapstructure:"file_level"`
	FileDir      string `mapstructure:"file_dir"`
	DisableFile  bool   `mapstructure:"disable_file"`
}

type MySQLConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pwd  string `mapstructure:"pwd"`
	DB   string `mapstructure:"db"`
}

type MetadataConfig struct {
	Enabled        bool        `mapstructure:"enabled"`
	Driver         string      `mapstructure:"driver"`
	SQLitePath     string      `mapstructure:"sqlite_path"`
	MySQL          MySQLConfig `mapstructure:"mysql"`
	CheckMigration bool        `mapstructure:"check_migration"`
}

type RabbitMQConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pwd  string `mapstructure:"pwd"`
}

type Neo4jConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Pwd       string `mapstructure:"pwd"`
	BatchSize int    `mapstructure:"batch_size"`
}

type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type SMTPConfig struct {
	Identity string `mapstructure:"identity"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	UserName string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	To      string     `mapstructure:"to"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	DebugMode bool   `mapstructure:"debug_mode"`
}

type Config struct {
	OutputDir     string `mapstructure:"output_dir"`
	Seed          uint64 `mapstructure:"seed"`
	ProgressEvery int    `mapstructure:"progress_every"`

	Vocab    VocabConfig    `mapstructure:"vocab"`
	Link     LinkConfig     `mapstructure:"link"`
	Spill    SpillConfig    `mapstructure:"spill"`
	Prune    PruneConfig    `mapstructure:"prune"`
	Bag      BagConfig      `mapstructure:"bag"`
	Split    SplitConfig    `mapstructure:"split"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	S3       S3Config       `mapstructure:"s3"`
	Email    EmailConfig    `mapstructure:"email"`
	Server   ServerConfig   `mapstructure:"server"`
}

/*
Default 返回默认配置：句长 [32, 256] 个字符，关系组合数 [10, 1500]，NA 取正样本的 70%，
证据包 32 句，test 20%、dev 10%。
*/
func Default() *Config {
	return &Config{
		OutputDir:     "output",
		Seed:          2021,
		ProgressEvery: 1000000,
		Vocab: VocabConfig{
			Path: "vocab.json",
		},
		Link: LinkConfig{
			MinSentLen: 32,
			MaxSentLen: 256,
			Boundary:   "word",
			Workers:    4,
			BatchSize:  4096,
		},
		Spill: SpillConfig{
			Dir: "spill",
		},
		Prune: PruneConfig{
			MinRelGroup:     10,
			MaxRelGroup:     1500,
			NegativePercent: 70,
		},
		Bag: BagConfig{
			MaxBagSize: 32,
			KTag:       true,
		},
		Split: SplitConfig{
			TestPercent: 20,
			DevPercent:  10,
		},
		Logging: LoggingConfig{
			ConsoleLevel: "info",
			FileLevel:    "debug",
			FileDir:      "logs",
			DisableFile:  true,
		},
		Metadata: MetadataConfig{
			Driver:     "sqlite",
			SQLitePath: "ds-builder.db",
			MySQL: MySQLConfig{
				Host: "localhost",
				Port: 3306,
				DB:   "ds_builder",
			},
			CheckMigration: true,
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: "5672",
			User: "guest",
			Pwd:  "guest",
		},
		Neo4j: Neo4jConfig{
			Host:      "localhost",
			Port:      7687,
			User:      "neo4j",
			BatchSize: 1000,
		},
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "ds-builder",
		},
		Email: EmailConfig{
			SMTP: SMTPConfig{
				Port: 25,
			},
		},
		Server: ServerConfig{
			Port: 8003,
		},
	}
}

// defaults flattens cfg into viper keys so that every key can be overridden from the environment.
func defaults(v *viper.Viper, cfg *Config) {
	set := map[string]any{
		"output_dir":     cfg.OutputDir,
		"seed":           cfg.Seed,
		"progress_every": cfg.ProgressEvery,

		"vocab.path":          cfg.Vocab.Path,
		"vocab.drugbank_meta": cfg.Vocab.DrugBankMeta,
		"vocab.drugbank_ddi":  cfg.Vocab.DrugBankDDI,

		"link.corpus":         cfg.Link.Corpus,
		"link.min_sent_len":   cfg.Link.MinSentLen,
		"link.max_sent_len":   cfg.Link.MaxSentLen,
		"link.separators":     cfg.Link.Separators,
		"link.case_sensitive": cfg.Link.CaseSensitive,
		"link.boundary":       cfg.Link.Boundary,
		"link.dfa":            cfg.Link.DFA,
		"link.workers":        cfg.Link.Workers,
		"link.batch_size":     cfg.Link.BatchSize,
		"link.distributed":    cfg.Link.Distributed,

		"spill.enabled": cfg.Spill.Enabled,
		"spill.dir":     cfg.Spill.Dir,

		"prune.min_rel_group":    cfg.Prune.MinRelGroup,
		"prune.max_rel_group":    cfg.Prune.MaxRelGroup,
		"prune.negative_percent": cfg.Prune.NegativePercent,

		"bag.max_bag_size": cfg.Bag.MaxBagSize,
		"bag.k_tag":        cfg.Bag.KTag,
		"bag.expand_rels":  cfg.Bag.ExpandRels,

		"split.test_percent": cfg.Split.TestPercent,
		"split.dev_percent":  cfg.Split.DevPercent,

		"logging.console_level": cfg.Logging.ConsoleLevel,
		"logging.file_level":    cfg.Logging.FileLevel,
		"logging.file_dir":      cfg.Logging.FileDir,
		"logging.disable_file":  cfg.Logging.DisableFile,

		"metadata.enabled":         cfg.Metadata.Enabled,
		"metadata.driver":          cfg.Metadata.Driver,
		"metadata.sqlite_path":     cfg.Metadata.SQLitePath,
		"metadata.mysql.host":      cfg.Metadata.MySQL.Host,
		"metadata.mysql.port":      cfg.Metadata.MySQL.Port,
		"metadata.mysql.user":      cfg.Metadata.MySQL.User,
		"metadata.mysql.pwd":       cfg.Metadata.MySQL.Pwd,
		"metadata.mysql.db":        cfg.Metadata.MySQL.DB,
		"metadata.check_migration": cfg.Metadata.CheckMigration,

		"rabbitmq.host": cfg.RabbitMQ.Host,
		"rabbitmq.port": cfg.RabbitMQ.Port,
		"rabbitmq.user": cfg.RabbitMQ.User,
		"rabbitmq.pwd":  cfg.RabbitMQ.Pwd,

		"neo4j.enabled":    cfg.Neo4j.Enabled,
		"neo4j.host":       cfg.Neo4j.Host,
		"neo4j.port":       cfg.Neo4j.Port,
		"neo4j.user":       cfg.Neo4j.User,
		"neo4j.pwd":        cfg.Neo4j.Pwd,
		"neo4j.batch_size": cfg.Neo4j.BatchSize,

		"s3.enabled":    cfg.S3.Enabled,
		"s3.endpoint":   cfg.S3.Endpoint,
		"s3.region":     cfg.S3.Region,
		"s3.bucket":     cfg.S3.Bucket,
		"s3.prefix":     cfg.S3.Prefix,
		"s3.access_key": cfg.S3.AccessKey,
		"s3.secret_key": cfg.S3.SecretKey,

		"email.enabled":       cfg.Email.Enabled,
		"email.to":            cfg.Email.To,
		"email.smtp.identity": cfg.Email.SMTP.Identity,
		"email.smtp.host":     cfg.Email.SMTP.Host,
		"email.smtp.port":     cfg.Email.SMTP.Port,
		"email.smtp.username": cfg.Email.SMTP.UserName,
		"email.smtp.password": cfg.Email.SMTP.Password,

		"server.host":       cfg.Server.Host,
		"server.port":       cfg.Server.Port,
		"server.debug_mode": cfg.Server.DebugMode,
	}
	for key, value := range set {
		v.SetDefault(key, value)
	}
}

/*
Load 按 默认值 < YAML 配置文件 < 环境变量 的优先级加载配置。当前目录下的 .env 文件（若存在）先被载入环境变量。
path 为空时不读取配置文件。
*/
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	defaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, utils.WrapErrorf(err, "read config file [%s] fail", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, utils.WrapError(err, "unmarshal config fail")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
