package config

const (
	EnvPrefix = "SHINWARI"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHINWARI_DB_DSN"
	EnvDBHost = "SHINWARI_DB_HOST"
	EnvDBUser = "SHINWARI_DB_USER"
	EnvDBName = "SHINWARI_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
