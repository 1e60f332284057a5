package config

import (
	"gopkg.in/yaml.v3"
	"os"
)

type Configuration struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Janitor JanitorConfig `yaml:"janitor"`
	Civitai CivitaiConfig `yaml:"civitai"`
	Tagger  TaggerConfig  `yaml:"tagger"`
}

type StorageConfig struct {
	LoraPath string `yaml:"loraPath"`
	DataPath string `yaml:"dataPath"`
}

type ServerConfig struct {
	Port        int       `yaml:"port"`
	BodyLimitMB int       `yaml:"bodyLimitMB"`
	LogConfig   LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Output  string `yaml:"output"`
	LogPath string `yaml:"logPath"`
}

type JanitorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

type CivitaiConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type TaggerConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	ChunkSize      int    `yaml:"chunkSize"`
	PauseMillis    int    `yaml:"pauseMillis"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

func LoadConfiguration(configurationFilePath string) (*Configuration, error) {
	data, err := os.ReadFile(configurationFilePath)
	if err != nil {
		return nil, err
	}
	var config Configuration
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(c *Configuration) {
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = 64
	}
	if c.Storage.DataPath == "" {
		c.Storage.DataPath = "data"
	}
	if c.Janitor.Schedule == "" {
		c.Janitor.Schedule = "@hourly"
	}
	if c.Civitai.BaseURL == "" {
		c.Civitai.BaseURL = "https://civitai.com/api/v1"
	}
	if c.Civitai.TimeoutSeconds == 0 {
		c.Civitai.TimeoutSeconds = 30
	}
	if c.Tagger.ChunkSize == 0 {
		c.Tagger.ChunkSize = 5
	}
	if c.Tagger.PauseMillis == 0 {
		c.Tagger.PauseMillis = 500
	}
	if c.Tagger.TimeoutSeconds == 0 {
		c.Tagger.TimeoutSeconds = 60
	}
}
