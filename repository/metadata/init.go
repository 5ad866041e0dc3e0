package metadata

import (
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"autograph-ds-builder/utils"
)

var ErrUnknownDriver = errors.New("unknown metadata driver")

type MySQLConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

func (c *MySQLConfig) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type Config struct {
	Logger         *logrus.Logger
	Driver         string
	MySQL          MySQLConfig
	SQLitePath     string
	CheckMigration bool
}

func (c *Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverMySQL:
		return mysql.Open(c.MySQL.dsn()), nil
	case DriverSQLite, "":
		return gormlite.Open("file:" + c.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), nil
	default:
		return nil, utils.WrapErrorf(ErrUnknownDriver, "open metadata driver [%s] fail", c.Driver)
	}
}

/*
GenerateTestConfig 测试用配置，使用 dir 下的 SQLite 数据库文件。
*/
func GenerateTestConfig(logger *logrus.Logger, dir string) *Config {
	return &Config{
		Logger:         logger,
		Driver:         DriverSQLite,
		SQLitePath:     dir + "/metadata_test.db",
		CheckMigration: true,
	}
}

type sqlLogger struct {
	logger *logrus.Logger
}

func (l *sqlLogger) Printf(fmt string, args ...interface{}) {
	l.logger.Debugf(fmt, args...)
}

/*
Store 保存每次构建的元信息：运行记录、各关系的组合数、各划分的规模。
*/
type Store struct {
	db *gorm.DB
}

func Open(config *Config) (*Store, error) {
	dialector, err := config.dialector()
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{}
	if config.Logger != nil {
		gormConfig.Logger = logger.New(&sqlLogger{logger: config.Logger}, logger.Config{LogLevel: logger.Warn})
	}

	database, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, utils.WrapError(err, "db connection fail")
	}

	if config.CheckMigration {
		err = migration(database, config.Driver)
		if err != nil {
			return nil, utils.WrapError(err, "migration fail")
		}
	}

	return &Store{db: database}, nil
}

func migration(db *gorm.DB, driver string) error {
	tables := []interface{}{
		&Run{}, &RunRelation{}, &RunSplit{},
	}
	if driver == DriverMySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci")
	}
	err := db.AutoMigrate(tables...)
	if err != nil {
		return utils.WrapError(err, "AutoMigrate fail")
	}

	return nil
}

func (s *Store) DatabaseRaw() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return utils.WrapError(err, "get sql.DB fail")
	}
	return sqlDB.Close()
}
