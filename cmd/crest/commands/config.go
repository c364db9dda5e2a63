package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fivetwenty-io/crest/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	// Application registered with EVE SSO
	ClientID    string `json:"client_id,omitempty"    yaml:"client_id,omitempty"`
	APIKey      string `json:"api_key,omitempty"      yaml:"api_key,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty" yaml:"redirect_uri,omitempty"`

	// Server selection
	Testing        bool   `json:"testing"                   yaml:"testing"`
	PublicEndpoint string `json:"public_endpoint,omitempty" yaml:"public_endpoint,omitempty"`
	AuthedEndpoint string `json:"authed_endpoint,omitempty" yaml:"authed_endpoint,omitempty"`
	OAuthEndpoint  string `json:"oauth_endpoint,omitempty"  yaml:"oauth_endpoint,omitempty"`

	// Global settings
	CacheTime int    `json:"cache_time,omitempty" yaml:"cache_time,omitempty"`
	Output    string `json:"output,omitempty"     yaml:"output,omitempty"`

	// SSO session
	AccessToken    string     `json:"access_token,omitempty"     yaml:"access_token,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage crest CLI configuration including the SSO application and endpoints",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout(), maskSecrets(loadConfig()), viper.GetString("output"))
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Known keys:
  client_id, api_key, redirect_uri, testing, public_endpoint,
  authed_endpoint, oauth_endpoint, cache_time, output`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func showConfig(w io.Writer, config *Config, output string) error {
	switch output {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(config)
	case constants.FormatYAML:
		return yaml.NewEncoder(w).Encode(config)
	}

	expiresAt := constants.NotAvailable
	if config.TokenExpiresAt != nil {
		expiresAt = config.TokenExpiresAt.Format(time.RFC3339)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")
	_ = table.Append("Client ID", orNotAvailable(config.ClientID))
	_ = table.Append("API Key", orNotAvailable(config.APIKey))
	_ = table.Append("Redirect URI", orNotAvailable(config.RedirectURI))
	_ = table.Append("Testing", strconv.FormatBool(config.Testing))
	_ = table.Append("Public Endpoint", orNotAvailable(config.PublicEndpoint))
	_ = table.Append("Authed Endpoint", orNotAvailable(config.AuthedEndpoint))
	_ = table.Append("OAuth Endpoint", orNotAvailable(config.OAuthEndpoint))
	_ = table.Append("Cache Time", strconv.Itoa(config.CacheTime))
	_ = table.Append("Access Token", orNotAvailable(config.AccessToken))
	_ = table.Append("Refresh Token", orNotAvailable(config.RefreshToken))
	_ = table.Append("Token Expires At", expiresAt)

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func orNotAvailable(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// maskSecrets returns a copy of config safe to print.
func maskSecrets(config *Config) *Config {
	masked := *config

	if masked.APIKey != "" {
		masked.APIKey = constants.MaskedSecret
	}

	if masked.AccessToken != "" {
		masked.AccessToken = constants.MaskedSecret
	}

	if masked.RefreshToken != "" {
		masked.RefreshToken = constants.MaskedSecret
	}

	return &masked
}

// setConfigValue sets a user-editable key. Tokens are only written by login
// and refresh.
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "client_id":
		config.ClientID = value
	case "api_key":
		config.APIKey = value
	case "redirect_uri":
		config.RedirectURI = value
	case "testing":
		testing, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for testing: %w", err)
		}

		config.Testing = testing
	case "public_endpoint":
		config.PublicEndpoint = value
	case "authed_endpoint":
		config.AuthedEndpoint = value
	case "oauth_endpoint":
		config.OAuthEndpoint = value
	case "cache_time":
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for cache_time: %w", err)
		}

		if seconds < 0 {
			return fmt.Errorf("invalid value for cache_time: %d", seconds)
		}

		config.CacheTime = seconds
	case "output":
		if !validOutput(value) {
			return constants.ErrInvalidOutput
		}

		config.Output = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func validOutput(output string) bool {
	switch output {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	default:
		return false
	}
}

func loadConfig() *Config {
	config := &Config{
		ClientID:       viper.GetString("client_id"),
		APIKey:         viper.GetString("api_key"),
		RedirectURI:    viper.GetString("redirect_uri"),
		Testing:        viper.GetBool("testing"),
		PublicEndpoint: viper.GetString("public_endpoint"),
		AuthedEndpoint: viper.GetString("authed_endpoint"),
		OAuthEndpoint:  viper.GetString("oauth_endpoint"),
		CacheTime:      viper.GetInt("cache_time"),
		Output:         viper.GetString("output"),
		AccessToken:    viper.GetString("access_token"),
		RefreshToken:   viper.GetString("refresh_token"),
	}

	expiresAt := viper.GetTime("token_expires_at")
	if !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	return config
}

// configFilePath returns the file the configuration is written to.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".crest", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	return nil
}
