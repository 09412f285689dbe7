package config

// EnvPrefix is applied by envconfig when resolving variables.
const EnvPrefix = "permittree"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PERMITTREE_DB_DSN"
	EnvDBHost = "PERMITTREE_DB_HOST"
	EnvDBUser = "PERMITTREE_DB_USER"
	EnvDBName = "PERMITTREE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
