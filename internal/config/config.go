// internal/config/config.go
package config

import (
	"os"
	"strconv"
)

// Defaults for the tunables the protocol fixes. Room count 8 and a 1024-byte
// receive ceiling are the wire-visible values clients assume.
const (
	DefaultRoomCount  = 8
	DefaultReadBuffer = 1024
)

// Config holds the env-sourced server tunables. The CLI surface (port,
// credential file, --debug) is positional and parsed in main; everything
// optional comes from the environment, with .env files honored via the
// godotenv autoload import in the entrypoints.
type Config struct {
	RoomCount  int
	ReadBuffer int
}

// Load reads the environment, falling back to defaults for unset or
// unparseable values.
func Load() Config {
	return Config{
		RoomCount:  envInt("COINDUEL_ROOM_COUNT", DefaultRoomCount),
		ReadBuffer: envInt("COINDUEL_READ_BUFFER", DefaultReadBuffer),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
