package main

import (
	"os"

	"github.com/joho/godotenv"
)

// godotenvLoadIfPresent loads path as a .env file if it exists, silently
// doing nothing otherwise. main already loads the default ".env"; this lets
// --env point at an alternate file for per-deployment overrides.
func godotenvLoadIfPresent(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
