package config

// file.go - the persisted key=value config file.
//
//	host = sysprak.priv.lab.nm.ifi.lmu.de
//	port = 1357
//	game = Quarto
//
// Keys are case-insensitive, unknown keys and blank lines are ignored.

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	ncerr "quartoc/internal/errors"
)

// ErrNoConfigFile is returned by ReadFile when the file does not exist
// or holds nothing but whitespace.
var ErrNoConfigFile = ncerr.New("config file missing or empty")

// File is the content of a config file.
type File struct {
	Host string
	Port int
	Game string
}

// DefaultFile is what gets written when no config file exists.
func DefaultFile() File {
	return File{Host: DefaultHost, Port: DefaultPort, Game: DefaultGameKind}
}

// ReadFile parses the config file at path.
func ReadFile(path string) (File, error) {
	f, err := os.Open(path)
	if ncerr.Is(err, fs.ErrNotExist) {
		return File{}, ErrNoConfigFile
	}
	if err != nil {
		return File{}, fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileSize+1))
	if err != nil {
		return File{}, fmt.Errorf("config file %s: %w", path, err)
	}
	if len(data) > MaxConfigFileSize {
		return File{}, fmt.Errorf("config file %s is larger than %d bytes", path, MaxConfigFileSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, ErrNoConfigFile
	}
	return parseFile(path, string(data))
}

func parseFile(path, content string) (File, error) {
	var out File
	var hasHost, hasPort, hasGame bool

	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		switch key {
		case "host":
			out.Host, hasHost = value, true
		case "port":
			p, err := strconv.Atoi(value)
			if err != nil || p < 1 || p > 65535 {
				return File{}, fmt.Errorf("config file %s: %w", path, &ncerr.ConfigError{
					Field:   "port",
					Value:   value,
					Message: "must be a number between 1 and 65535",
				})
			}
			out.Port, hasPort = p, true
		case "game":
			out.Game, hasGame = value, true
		}
	}

	var missing []string
	for _, k := range []struct {
		name  string
		found bool
	}{{"host", hasHost}, {"port", hasPort}, {"game", hasGame}} {
		if !k.found {
			missing = append(missing, k.name)
		}
	}
	if len(missing) > 0 {
		return File{}, fmt.Errorf("config file %s: missing %s", path, strings.Join(missing, ", "))
	}
	return out, nil
}

// WriteFile stores f at path, replacing any previous content.
func WriteFile(path string, f File) error {
	content := fmt.Sprintf("host = %s\nport = %d\ngame = %s\n", f.Host, f.Port, f.Game)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyFile reads cfg.ConfigPath and copies its settings into cfg.  A
// missing or empty file is replaced by the defaults, and created
// reports that it was written.
func ApplyFile(cfg *Config) (created bool, err error) {
	f, err := ReadFile(cfg.ConfigPath)
	if ncerr.Is(err, ErrNoConfigFile) {
		f = DefaultFile()
		if err := WriteFile(cfg.ConfigPath, f); err != nil {
			return false, err
		}
		created = true
	} else if err != nil {
		return false, err
	}
	cfg.Host = f.Host
	cfg.Port = f.Port
	cfg.GameKind = f.Game
	return created, nil
}
