package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Store persists credentials to the process environment, a .env file and,
// on Windows, the user environment.
type Store struct {
	mu      sync.Mutex
	envPath string
	mirror  func(name, value string) error
}

// New returns a store writing to envPath. An empty envPath skips the file.
func New(envPath string) *Store {
	return &Store{envPath: envPath, mirror: mirrorUserEnv}
}

// Set records value under name; an empty value removes it everywhere.
// Every destination is attempted; the first failure is returned.
func (s *Store) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if value == "" {
		keep(os.Unsetenv(name))
	} else {
		keep(os.Setenv(name, value))
	}

	if s.envPath != "" {
		keep(s.writeDotenv(name, value))
	}

	if s.mirror != nil {
		if err := s.mirror(name, value); err != nil {
			log.Printf("secrets: user environment update for %s failed: %v", name, err)
			keep(err)
		}
	}
	return firstErr
}

func (s *Store) writeDotenv(name, value string) error {
	values, err := godotenv.Read(s.envPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", s.envPath, err)
		}
		values = map[string]string{}
	}

	if value == "" {
		if _, ok := values[name]; !ok {
			return nil
		}
		delete(values, name)
	} else {
		values[name] = value
	}

	if err := godotenv.Write(values, s.envPath); err != nil {
		return fmt.Errorf("write %s: %w", s.envPath, err)
	}
	return nil
}
