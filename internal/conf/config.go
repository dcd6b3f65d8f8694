// config.go: settings struct and functions to load the objectscan configuration.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings contains application-wide settings.
type MainSettings struct {
	Name string // name of this node, used in log records
	Log  struct {
		Enabled bool   // true to enable detection log file
		Path    string // path to detection log file
	}
}

// InputSettings describes the scraped image corpus to sweep.
type InputSettings struct {
	Path string // root of the date/channel partitioned image tree
	Root string // expected root segment name, used to validate image paths
}

// SQLiteSettings contains settings for the optional SQLite detections store.
type SQLiteSettings struct {
	Enabled bool   // true to also insert detection records into SQLite
	Path    string // path to the SQLite database file
}

// OutputSettings describes where sweep results are persisted.
type OutputSettings struct {
	Path       string         // processed data directory, created on startup
	Detections string         // path to the append-only detections JSONL file
	Ledger     string         // path to the processed-images ledger file
	SQLite     SQLiteSettings // optional secondary detections store
}

// DetectorSettings configures the object detection adapter.
type DetectorSettings struct {
	Endpoint     string  // inference service URL
	Model        string  // model name requested from the inference service
	Confidence   float64 // minimum confidence score to keep a detection
	Overlap      float64 // IoU threshold for non-maximum suppression
	Timeout      int     // per-image inference timeout in seconds
	MaxDimension int     // images larger than this are downscaled before upload, 0 disables
}

// Settings contains all runtime settings for the application.
type Settings struct {
	Debug bool // true to enable debug output

	Main     MainSettings
	Input    InputSettings
	Output   OutputSettings
	Detector DetectorSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into the package-level settings singleton.
// Missing config file is not an error, defaults apply.
func Load() (*Settings, error) {
	var loadErr error
	once.Do(func() {
		settings, err := loadSettings()
		if err != nil {
			loadErr = err
			return
		}
		settingsMutex.Lock()
		settingsInstance = settings
		settingsMutex.Unlock()
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return Setting(), nil
}

func loadSettings() (*Settings, error) {
	setDefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, dir := range configPaths() {
		viper.AddConfigPath(dir)
	}
	viper.SetEnvPrefix("objectscan")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fatal error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	return settings, nil
}

// Setting returns the package-level settings instance. Returns nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// configPaths returns the directories searched for config.yaml, in priority order.
func configPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "objectscan"))
	}
	paths = append(paths, "/etc/objectscan")
	return paths
}

// DumpYAML renders the effective settings as YAML, used by the config subcommand.
func (s *Settings) DumpYAML() (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("error marshaling settings to yaml: %w", err)
	}
	return string(out), nil
}
