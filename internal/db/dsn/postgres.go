package dsn

import (
	"errors"
	"fmt"

	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/errs"
)

var (
	ErrLoadingDatabaseHost     = errors.New("error loading database host")
	ErrLoadingDatabaseUser     = errors.New("error loading database user")
	ErrLoadingDatabasePassword = errors.New("error loading database password")
)

// FromDBConfig converts `config.Database` data to a DSN and returns it.
func FromDBConfig(conf config.Database) (string, error) {
	return ForDatabase(conf, conf.Name)
}

// ForDatabase builds a DSN for the same server as `conf` but pointing
// at a different database. Tenant stores and the admin database live on
// the registry's server, only the database name differs.
func ForDatabase(conf config.Database, dbname string) (string, error) {
	host, err := commoncfg.LoadValueFromSourceRef(conf.Host)
	if err != nil {
		return "", errs.Wrap(ErrLoadingDatabaseHost, err)
	}

	user, err := commoncfg.LoadValueFromSourceRef(conf.User)
	if err != nil {
		return "", errs.Wrap(ErrLoadingDatabaseUser, err)
	}

	password, err := commoncfg.LoadValueFromSourceRef(conf.Secret)
	if err != nil {
		return "", errs.Wrap(ErrLoadingDatabasePassword, err)
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s",
		host, user, string(password), dbname, conf.Port), nil
}
