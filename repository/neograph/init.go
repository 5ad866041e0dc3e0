package neograph

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/sirupsen/logrus"

	"autograph-ds-builder/utils"
)

type Neo4jConfig struct {
	Host string
	Port int
	User string
	Pwd  string
}

func (c *Neo4jConfig) uri() string {
	return fmt.Sprintf("bolt://%s:%d", c.Host, c.Port)
}

type Config struct {
	Logger *logrus.Logger
	Neo4j  Neo4jConfig
}

func GenerateTestConfig(logger *logrus.Logger) *Config {
	return &Config{
		Logger: logger,
		Neo4j: Neo4jConfig{
			Host: "localhost",
			Port: 7687,
			User: "neo4j",
			Pwd:  "neo4j_test",
		},
	}
}

/*
Summary 一次写事务的变更统计。
*/
type Summary struct {
	NodesCreated         int
	RelationshipsCreated int
	PropertiesSet        int
}

/*
Client 包装 neo4j driver，所有语句都在写事务中执行。
*/
type Client struct {
	driver neo4j.Driver
	logger *logrus.Logger
}

func NewClient(config *Config) (*Client, error) {
	driver, err := neo4j.NewDriver(config.Neo4j.uri(), neo4j.BasicAuth(config.Neo4j.User, config.Neo4j.Pwd, ""))
	if err != nil {
		return nil, utils.WrapErrorf(err, "create neo4j driver [%s] fail", config.Neo4j.uri())
	}

	if err := driver.VerifyConnectivity(); err != nil {
		_ = driver.Close()
		return nil, utils.WrapErrorf(err, "connect neo4j [%s] fail", config.Neo4j.uri())
	}

	return &Client{driver: driver, logger: config.Logger}, nil
}

func (c *Client) Execute(cypher string, params map[string]interface{}) (*Summary, error) {
	session := c.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(); err != nil && c.logger != nil {
			c.logger.WithError(err).Warn("close neo4j session fail")
		}
	}()

	res, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume()
	})
	if err != nil {
		return nil, utils.WrapError(err, "execute cypher fail")
	}

	counters := res.(neo4j.ResultSummary).Counters()
	return &Summary{
		NodesCreated:         counters.NodesCreated(),
		RelationshipsCreated: counters.RelationshipsCreated(),
		PropertiesSet:        counters.PropertiesSet(),
	}, nil
}

func (c *Client) Close() error {
	return c.driver.Close()
}
