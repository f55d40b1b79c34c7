package config

import (
	"encoding/json"
	"os"
)

// DBConfig selects and parameterizes the storage backend.
type DBConfig struct {
	Type     string `json:"type"` // "memory", "badger" or "postgres"
	Path     string `json:"path"` // badger data directory
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
	TimeZone string `json:"timezone"`
}

// LoggerConfig holds the logging configuration.
type LoggerConfig struct {
	Level      string `json:"level"`  // e.g., "debug", "info", "warn", "error"
	Format     string `json:"format"` // "text" or "json"
	FilePath   string `json:"path"`   // e.g., "logs/privacy-node.log"
	MaxSize    int    `json:"maxSize"`
	MaxBackups int    `json:"maxBackups"`
	MaxAge     int    `json:"maxAge"`
	Compress   bool   `json:"compress"`
}

// KeyPair is one of the node's own identities, base64-encoded curve25519.
type KeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// Peer holds the information for a remote node.
type Peer struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	PublicKey string `json:"publicKey"`
}

// Node holds this node's identity and listen configuration.
type Node struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`      // advertised base URL of the peer API
	PeerPort   int       `json:"port"`     // node-to-node propagation endpoints
	ClientPort int       `json:"api_port"` // client-facing JSON API
	Keys       []KeyPair `json:"keys"`
}

// Config holds the application's configuration values.
type Config struct {
	Node     Node         `json:"node"`
	Peers    []Peer       `json:"peers"`
	Database DBConfig     `json:"database"`
	Logger   LoggerConfig `json:"logger"`
}

// LoadConfig reads the configuration from a file and returns a Config struct.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	config := &Config{}
	err = decoder.Decode(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
