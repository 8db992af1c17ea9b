package config

import "sync"

var (
	databaseOnce   sync.Once
	databaseConfig *DatabaseConfig
)

type DatabaseConfig struct {
	DSN string
}

func GetDatabaseConfig() *DatabaseConfig {
	databaseOnce.Do(func() {
		loadEnv()

		databaseConfig = &DatabaseConfig{
			DSN: getenv("DATABASE_DSN",
				"host=localhost user=pdflingo password=pdflingo dbname=pdflingo port=5432 sslmode=disable"),
		}
	})
	return databaseConfig
}
