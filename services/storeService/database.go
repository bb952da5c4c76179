package storeService

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/xo/dburl"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"perfectTipsBot/models"
)

// Dialector picks the gorm dialect from the scheme of a database URL, e.g.
// mysql://, postgres:// or sqlserver://.
func Dialector(databaseURL string) (gorm.Dialector, error) {
	u, err := dburl.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	switch u.Driver {
	case "mysql":
		dsn := u.DSN
		if !strings.Contains(dsn, "parseTime") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "charset=utf8mb4&parseTime=True&loc=UTC"
		}
		return mysql.Open(dsn), nil
	case "postgres":
		conn, err := sql.Open("postgres", u.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgres.New(postgres.Config{Conn: conn}), nil
	case "sqlserver":
		connector, err := mssql.NewConnector(u.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlserver: %w", err)
		}
		return sqlserver.New(sqlserver.Config{Conn: sql.OpenDB(connector)}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", u.Driver)
	}
}

func Open(databaseURL string) (*gorm.DB, error) {
	dialector, err := Dialector(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Tip{}, &models.Accumulator{}, &models.AccumulatorTip{}, &models.ErrorLog{}, &models.Migration{})
}
