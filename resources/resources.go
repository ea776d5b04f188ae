package resources

import (
	"fmt"
	"io"
	"os"

	"github.com/rayen-mansouri/packet-analyzer/config"
	log "github.com/sirupsen/logrus"
)

type (
	// Resources provides a data structure for passing system Resources
	Resources struct {
		Config *config.Config
		Log    *log.Logger
	}
)

// InitResources grabs the configuration file and intitializes the configuration data
// returning a *Resources object which has all of the necessary configuration information
func InitResources(userConfig string) (*Resources, error) {
	conf, err := config.LoadConfig(userConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewResources(conf, os.Stderr)
}

// NewResources wires a logger around an already loaded configuration
func NewResources(conf *config.Config, logOut io.Writer) (*Resources, error) {
	// Fire up the logging system
	log := initLogger(&conf.S.Log, logOut)

	if conf.S.Log.LogToFile {
		if err := addFileLogger(log, conf.S.Log.LogPath); err != nil {
			return nil, fmt.Errorf("failed to start file logging: %w", err)
		}
	}

	//bundle up the system resources
	r := &Resources{
		Config: conf,
		Log:    log,
	}
	return r, nil
}
