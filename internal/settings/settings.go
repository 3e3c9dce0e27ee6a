// Package settings loads user settings from a TOML file with environment
// overrides.
package settings

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
	"go.uber.org/zap/zapcore"

	"graft/internal/object"
)

// EnvConfigFile overrides the settings file location.
const EnvConfigFile = "GRAFT_CONFIG"

type User struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type Log struct {
	Level string `toml:"level"`
}

type Snapshot struct {
	// Ignore lists directory and file names excluded from working-copy
	// snapshots.
	Ignore []string `toml:"ignore"`
}

type Settings struct {
	User     User     `toml:"user" envconfig:"user"`
	Log      Log      `toml:"log" envconfig:"log"`
	Snapshot Snapshot `toml:"snapshot" envconfig:"snapshot"`
}

func Default() Settings {
	s := Settings{}
	s.setDefaults()
	return s
}

func (s *Settings) setDefaults() {
	if s.User.Name == "" {
		s.User.Name = "graft"
	}
	if s.User.Email == "" {
		s.User.Email = "graft@localhost"
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if len(s.Snapshot.Ignore) == 0 {
		s.Snapshot.Ignore = []string{".graft", ".git", "node_modules"}
	}
}

// Load decodes settings from file, applies GRAFT_* environment overrides,
// and fills in defaults.
func Load(file io.Reader) (Settings, error) {
	var s Settings

	if file != nil {
		if err := toml.NewDecoder(file).Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("decoding settings: %w", err)
		}
	}

	if err := envconfig.Process("graft", &s); err != nil {
		return Settings{}, fmt.Errorf("reading settings from environment: %w", err)
	}

	s.setDefaults()
	return s, nil
}

// LoadUser reads the user-level settings file: $GRAFT_CONFIG if set,
// otherwise ~/.config/graft/config.toml. A missing file yields defaults
// plus environment overrides.
func LoadUser() (Settings, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Load(nil)
		}
		path = filepath.Join(home, ".config", "graft", "config.toml")
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return Settings{}, fmt.Errorf("opening settings file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

func (s *Settings) Validate() error {
	for _, check := range []func() error{
		s.validateUser,
		s.validateLog,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Settings) validateUser() error {
	if s.User.Name == "" || s.User.Email == "" {
		return fmt.Errorf("user.name and user.email must be set")
	}
	return nil
}

func (s *Settings) validateLog() error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", s.Log.Level, err)
	}
	return nil
}

// NewSignature stamps the configured identity at the given time.
func (s Settings) NewSignature(when time.Time) object.Signature {
	return object.Signature{
		Name:  s.User.Name,
		Email: s.User.Email,
		When:  when.UnixMilli(),
	}
}
