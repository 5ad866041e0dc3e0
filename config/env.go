package config

// EnvPrefix every configuration key can be overridden by DSB_<SECTION>_<KEY>.
const EnvPrefix = "DSB"

const (
	EnvKeyEmailSMTPIdentity = "DSB_EMAIL_SMTP_IDENTITY"
	EnvKeyEmailSMTPHost     = "DSB_EMAIL_SMTP_HOST"
	EnvKeyEmailSMTPPort     = "DSB_EMAIL_SMTP_PORT"
	EnvKeyEmailSMTPUserName = "DSB_EMAIL_SMTP_USERNAME"
	EnvKeyEmailSMTPPassword = "DSB_EMAIL_SMTP_PASSWORD"

	EnvKeyMySQLUser = "DSB_METADATA_MYSQL_USER"
	EnvKeyMySQLPwd  = "DSB_METADATA_MYSQL_PWD"

	EnvKeyNeo4jUser = "DSB_NEO4J_USER"
	EnvKeyNeo4jPwd  = "DSB_NEO4J_PWD"

	EnvKeyRabbitMQUser = "DSB_RABBITMQ_USER"
	EnvKeyRabbitMQPwd  = "DSB_RABBITMQ_PWD"

	EnvKeyS3AccessKey = "DSB_S3_ACCESS_KEY"
	EnvKeyS3SecretKey = "DSB_S3_SECRET_KEY"
)
