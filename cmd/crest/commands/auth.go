package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"github.com/fivetwenty-io/crest/internal/constants"
	"github.com/fivetwenty-io/crest/pkg/eve"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// NewAuthURICommand creates the auth-uri command.
func NewAuthURICommand() *cobra.Command {
	var (
		scopes []string
		state  string
	)

	cmd := &cobra.Command{
		Use:   "auth-uri",
		Short: "Print the SSO authorization URI",
		Long: `Print the URI a user opens to grant the application access. After
approval SSO redirects to the configured redirect URI with a code; pass it
to 'crest login --code'. A random state is generated when none is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if config.ClientID == "" {
				return constants.ErrClientIDRequired
			}

			if config.RedirectURI == "" {
				return constants.ErrRedirectURIMissing
			}

			if state == "" {
				state = uuid.NewString()
			}

			client, err := eve.New(buildCrestConfig(cmd.Context(), config))
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), client.AuthURI(scopes, state))
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "state: %s\n", state)

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scope to request (repeatable or comma separated)")
	cmd.Flags().StringVar(&state, "state", "", "opaque state echoed back by SSO")

	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an SSO authorization code",
		Long:  "Exchange an authorization code for tokens and store them in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if code == "" {
				return constants.ErrCodeRequired
			}

			config := loadConfig()
			if config.ClientID == "" {
				return constants.ErrClientIDRequired
			}

			if config.APIKey == "" {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), "API key: ")

				byteKey, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.ErrOrStderr())
				config.APIKey = strings.TrimSpace(string(byteKey))
			}

			// Exchange with an anonymous client even when a session is stored.
			config.AccessToken = ""
			config.RefreshToken = ""
			config.TokenExpiresAt = nil

			client, err := eve.New(buildCrestConfig(ctx, config), eve.WithTokenPersister(NewConfigPersister()))
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			authed, err := client.Authorize(ctx, code)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			character, err := authed.Whoami(ctx)
			if err != nil {
				logger.Warn("Could not verify token", "err", err)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged in")

				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", character.CharacterName)

			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code from the SSO redirect")

	return cmd
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if !hasSession(config) {
				return constants.ErrNotAuthenticated
			}

			if config.RefreshToken == "" {
				return constants.ErrNoRefreshToken
			}

			client, err := newClient(cmd.Context(), config)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			err = client.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			token, err := client.Token()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed, expires at %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05"))

			return nil
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the character of the stored SSO session",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if !hasSession(config) {
				return constants.ErrNotAuthenticated
			}

			client, err := newClient(cmd.Context(), config)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			character, err := client.Whoami(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to verify token: %w", err)
			}

			return renderCharacter(cmd.OutOrStdout(), character, viper.GetString("output"))
		},
	}
}

func renderCharacter(w io.Writer, character *eve.Character, output string) error {
	switch output {
	case constants.FormatJSON:
		return writeJSON(w, character)
	case constants.FormatYAML:
		return yaml.NewEncoder(w).Encode(character)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")
	_ = table.Append("Character ID", strconv.FormatInt(character.CharacterID, 10))
	_ = table.Append("Character Name", character.CharacterName)
	_ = table.Append("Scopes", orNotAvailable(character.Scopes))
	_ = table.Append("Token Type", orNotAvailable(character.TokenType))
	_ = table.Append("Expires On", orNotAvailable(character.ExpiresOn))
	_ = table.Append("Owner Hash", orNotAvailable(character.CharacterOwnerHash))

	return renderTable(table)
}
