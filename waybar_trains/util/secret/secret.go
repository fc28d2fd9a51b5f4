// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package secret

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type MissingEnvironmentKey string

func (k MissingEnvironmentKey) Error() string {
	return fmt.Sprintf("%s environment variable not set", string(k))
}

// LoadDotEnv loads variables from the given .env files (".env" if none are given)
// into the environment, without overriding already set variables.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func FromEnvironment(key string) (string, error) {
	value := os.Getenv(key)
	path := os.Getenv(key + "_FILE")
	if value == "" && path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		value = string(content)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", MissingEnvironmentKey(key)
	}
	return value, nil
}

// FromEnvironmentOr works like FromEnvironment, but returns fallback
// if the variable is not set.
func FromEnvironmentOr(key, fallback string) (string, error) {
	value, err := FromEnvironment(key)
	if _, missing := err.(MissingEnvironmentKey); missing {
		return fallback, nil
	}
	return value, err
}
