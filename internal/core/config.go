package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of the
// server components. It is loaded once at startup and shared read-only.
type Config struct {
	// Hostname or IP address on which the servers will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// IP or hostname broadcast to clients in game server connect responses.
	ExternalIP string `mapstructure:"external_ip"`
	// Maximum number of concurrent connections a server role will allow.
	MaxConnections int `mapstructure:"max_connections"`
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`

	Database struct {
		// Engine selects the database driver: sqlite or postgres.
		Engine string `mapstructure:"engine"`
		// Filename of the sqlite database (sqlite engine only).
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	ConnectServer struct {
		// Port on which the CONNECT server will listen.
		Port int `mapstructure:"port"`
		// Port for the connect server's JSON-RPC status endpoint.
		StatusPort int `mapstructure:"status_port"`
		// URIs of the game server status endpoints polled by the browser.
		GameServers []string `mapstructure:"game_servers"`
		// Interval in seconds between browser refreshes of the server list.
		RefreshInterval int `mapstructure:"refresh_interval"`
	} `mapstructure:"connect_server"`

	GameServer struct {
		// Code identifying this game server ((group-1)*20 + (id-1)).
		ID int `mapstructure:"id"`
		// Port on which the GAME server will listen.
		Port int `mapstructure:"port"`
		// Port for the game server's JSON-RPC status endpoint.
		StatusPort int `mapstructure:"status_port"`
		// Client version and serial required by the login handshake.
		ClientVersion string `mapstructure:"client_version"`
		ClientSerial  string `mapstructure:"client_serial"`
		// Message of the day pushed after the character list.
		MOTD string `mapstructure:"motd"`
		// Character name length bounds for creation requests.
		CharacterNameMin int `mapstructure:"character_name_min"`
		CharacterNameMax int `mapstructure:"character_name_max"`
	} `mapstructure:"game_server"`

	Auth struct {
		// Number of failed attempts before the lockout delay starts growing.
		LockoutAttempts uint32 `mapstructure:"lockout_attempts"`
		// Cap on the lockout delay in minutes.
		LockoutTimeMax uint64 `mapstructure:"lockout_time_max"`
		// bcrypt cost used when hashing new passwords.
		HashCost int `mapstructure:"hash_cost"`
	} `mapstructure:"auth"`

	Debugging struct {
		// Log decoded packets at debug level.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "MUGO"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	return config
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// PostgresURL returns a database URL generated from the provided config values.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// GameServerStatusAddress returns the address of this process's game server
// status endpoint, suitable for registration with a connect server browser.
func (c *Config) GameServerStatusAddress() string {
	return fmt.Sprintf("http://%s:%d", c.Hostname, c.GameServer.StatusPort)
}
