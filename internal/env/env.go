package env

import (
	"errors"
	"fmt"
	"os"

	goenv "github.com/caarlos0/env/v11"
)

var (
	ErrNotFound         = errors.New("environment variable with key not found")
	ErrConversionFailed = errors.New("failed to convert environment variable with key to value")
)

func errNotFound(key string) error {
	return fmt.Errorf("key: %s: %w", key, ErrNotFound)
}

func GetStringOrDefault(key string, defaultVal string) string {
	if val, found := os.LookupEnv(key); found {
		return val
	}

	return defaultVal
}

func GetString(key string) (string, error) {
	if val, found := os.LookupEnv(key); found {
		return val, nil
	}

	return "", errNotFound(key)
}

// ParseEnv fills a T from the environment according to its env struct
// tags.
func ParseEnv[T any]() (T, error) {
	var target T
	if err := goenv.Parse(&target); err != nil {
		var aggregate goenv.AggregateError
		if errors.As(err, &aggregate) {
			for _, e := range aggregate.Errors {
				var missing goenv.EnvVarIsNotSetError
				if errors.As(e, &missing) {
					return target, fmt.Errorf("%s: %w", err.Error(), ErrNotFound)
				}
			}
		}
		return target, fmt.Errorf("%s: %w", err.Error(), ErrConversionFailed)
	}

	return target, nil
}
