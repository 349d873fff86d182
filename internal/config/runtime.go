package config

import "os"

const DefaultSnapshotPath = "tmp/chat_history_backup.yaml"

// GetEnvFilePath returns the dotenv file loaded before the environment is parsed.
func GetEnvFilePath() string {
	path := os.Getenv("HASHIA_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	return path
}

// GetLogFile is read before the full config so the logger can be set up first.
func GetLogFile() string {
	return os.Getenv("LOG_FILE")
}

// GetSnapshotPath resolves the snapshot file without requiring the server config.
func GetSnapshotPath() string {
	if path := os.Getenv("SNAPSHOT_PATH"); path != "" {
		return path
	}
	return DefaultSnapshotPath
}
