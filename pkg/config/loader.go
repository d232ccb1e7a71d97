package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.Mutex
	loaded = make(map[string]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into the provided configuration struct.
//
// The first call in the process attempts to load a .env file (missing files
// are fine). Each distinct config type is parsed once and cached; subsequent
// calls for the same type receive the cached copy, so every component sees an
// identical view of its configuration.
//
// Example:
//
//	type WorkerConfig struct {
//	    PullInterval time.Duration `env:"WORKER_PULL_INTERVAL" envDefault:"5s"`
//	    Concurrency  int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
//	}
//
//	var cfg WorkerConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is a local development convenience; its absence is normal.
		_ = godotenv.Load()
	})

	name := typeName[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := loaded[name]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	// Store a copy so later mutations of the caller's struct do not leak
	// into other consumers of the same type.
	loaded[name] = *v
	return nil
}

// MustLoad is like Load but panics on failure. Intended for process startup
// where a missing required variable should prevent the service from running.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(err)
	}
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
}
