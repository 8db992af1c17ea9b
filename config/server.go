package config

import "sync"

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64
	TargetLanguage string // language tag appended to translated filenames
	TargetLangName string // human name persisted with translation records
	StorageType    string // "minio" or "s3"
}

func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		loadEnv()

		serverConfig = &ServerConfig{
			Addr:           getenv("SERVER_ADDR", ":8080"),
			MaxUploadBytes: int64(getenvInt("MAX_UPLOAD_MB", 50)) * 1024 * 1024,
			TargetLanguage: getenv("TARGET_LANGUAGE", "en"),
			TargetLangName: getenv("TARGET_LANGUAGE_NAME", "English"),
			StorageType:    getenv("STORAGE_TYPE", "minio"),
		}
	})
	return serverConfig
}
