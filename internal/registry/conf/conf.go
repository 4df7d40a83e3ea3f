package conf

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/tuff-sh/tuffhub/pkg/cache"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"github.com/tuff-sh/tuffhub/pkg/orm"
	"github.com/tuff-sh/tuffhub/pkg/storage"
)

type AppConfig struct {
	Log      log.Conf
	Http     httpx.Http
	Database orm.Database
	Redis    cache.Redis
	Storage  storage.Storage
	Registry Registry
}

// Registry 发布侧配额
type Registry struct {
	MaxPluginsPerUser  int
	SubmissionCooldown time.Duration
	MaxPackageSize     int64
}

var (
	cfg  AppConfig
	once sync.Once
)

func NewConf(confFile string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load conf file error: %s", err))
		}
	})
	return cfg
}

// LoadConfigFile load conf file
func LoadConfigFile(confFile string) (AppConfig, error) {

	config := viper.New()
	config.SetConfigFile(confFile)
	config.AddConfigPath("./conf.d")
	config.SetConfigName("config")
	config.SetConfigType("toml")
	if err := config.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read configuration file: %v", err)
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("configuration changed, reloading: %s", e.Name)
		if err := config.Unmarshal(&cfg); err != nil {
			log.Errorf("failed to unmarshal configuration file: %v", err)
		}
	})
	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}
	fmt.Printf("[Init] config file path: %s\n", confFile)

	return cfg, nil
}
