package env

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable the trainer reads.
const Prefix = "XR_TRADE_"

// Load reads the given file (e.g. ".env") into the process environment. Variables already set
// win over the file. The file may be missing; that is not an error.
func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// String returns $XR_TRADE_<key>, or def when it is unset or empty.
func String(key, def string) string {
	if v := os.Getenv(Prefix + key); v != "" {
		return v
	}
	return def
}

// Bool returns $XR_TRADE_<key> parsed as a bool, or def when it is unset or unparsable.
func Bool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(Prefix + key))
	if err != nil {
		return def
	}
	return v
}
