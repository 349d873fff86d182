package config

import "os"

func IsDebug() bool {
	return os.Getenv("HASHIA_DEBUG") == "1"
}
