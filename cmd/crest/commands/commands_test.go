package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fivetwenty-io/crest/internal/constants"
	"github.com/fivetwenty-io/crest/pkg/crest"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func wrap(t *testing.T, doc string) crest.Value {
	t.Helper()

	node := mustDecode(t, doc)

	value, err := crest.Wrap(node, nil)
	require.NoError(t, err)

	return value
}

func mustDecode(t *testing.T, doc string) any {
	t.Helper()

	var v any

	decoder := json.NewDecoder(bytes.NewBufferString(doc))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&v))

	return v
}

// useTempConfig points viper at a config file in a temp dir.
func useTempConfig(t *testing.T) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "crest", "config.yml")
	viper.SetConfigFile(path)

	return path
}

func TestRenderValue(t *testing.T) {
	t.Parallel()

	value := wrap(t, `{"motd": {"href": "https://crest.example.test/motd/"}, "serverName": "TRANQUILITY", "userCounts": {"eve": 31337, "dust": 10}, "versions": [1, 2]}`)

	t.Run("table lists fields", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderValue(&buf, value, constants.FormatTable, ""))

		out := buf.String()
		assert.Contains(t, out, "-> https://crest.example.test/motd/")
		assert.Contains(t, out, "TRANQUILITY")
		assert.Contains(t, out, "{2 fields}")
		assert.Contains(t, out, "[2 items]")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderValue(&buf, value, constants.FormatJSON, ""))
		assert.JSONEq(t, `{"motd": {"href": "https://crest.example.test/motd/"}, "serverName": "TRANQUILITY",
			"userCounts": {"eve": 31337, "dust": 10}, "versions": [1, 2]}`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderValue(&buf, value, constants.FormatYAML, ""))
		assert.Contains(t, buf.String(), "serverName: TRANQUILITY")
	})

	t.Run("scalar", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderValue(&buf, crest.StringValue("fly safe"), constants.FormatTable, ""))
		assert.Equal(t, "fly safe\n", buf.String())
	})

	t.Run("query scalar", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderValue(&buf, value, constants.FormatTable, "userCounts.eve"))
		assert.Equal(t, "31337\n", buf.String())
	})

	t.Run("query object", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderValue(&buf, value, constants.FormatTable, "userCounts"))
		assert.JSONEq(t, `{"eve": 31337, "dust": 10}`, buf.String())
	})

	t.Run("query without match", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := renderValue(&buf, value, constants.FormatTable, "nothing.here")
		assert.ErrorIs(t, err, ErrQueryNoMatch)
	})
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		value   string
		check   func(t *testing.T, config *Config)
		wantErr error
	}{
		{
			name:  "client id",
			key:   "client_id",
			value: "abc",
			check: func(t *testing.T, config *Config) { assert.Equal(t, "abc", config.ClientID) },
		},
		{
			name:  "testing",
			key:   "testing",
			value: "true",
			check: func(t *testing.T, config *Config) { assert.True(t, config.Testing) },
		},
		{
			name:  "cache time",
			key:   "cache_time",
			value: "60",
			check: func(t *testing.T, config *Config) { assert.Equal(t, 60, config.CacheTime) },
		},
		{name: "negative cache time", key: "cache_time", value: "-1"},
		{name: "bad output", key: "output", value: "xml", wantErr: constants.ErrInvalidOutput},
		{name: "unknown key", key: "access_token", value: "x", wantErr: constants.ErrUnknownConfigKey},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := &Config{}
			err := setConfigValue(config, tt.key, tt.value)

			if tt.check == nil {
				require.Error(t, err)

				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestMaskSecrets(t *testing.T) {
	t.Parallel()

	config := &Config{ClientID: "client", APIKey: "secret", AccessToken: "token"}
	masked := maskSecrets(config)

	assert.Equal(t, "client", masked.ClientID)
	assert.Equal(t, constants.MaskedSecret, masked.APIKey)
	assert.Equal(t, constants.MaskedSecret, masked.AccessToken)
	assert.Empty(t, masked.RefreshToken)
	assert.Equal(t, "secret", config.APIKey, "input is untouched")
}

func TestLogAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	adapter := newLogAdapter(NewLogger(&buf, false))
	adapter.Debug("hidden", nil)
	adapter.Info("Getting resource", map[string]interface{}{"url": "https://crest.example.test/", "attempt": 1})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Getting resource")
	assert.Contains(t, out, "url=")
	assert.Contains(t, out, "crest.example.test")

	buf.Reset()
	newLogAdapter(NewLogger(&buf, true)).Debug("visible", nil)
	assert.Contains(t, buf.String(), "visible")
}

func TestLoggerFromContext(t *testing.T) {
	t.Parallel()

	logger := log.New(&bytes.Buffer{})

	assert.Same(t, logger, loggerFromContext(WithLogger(context.Background(), logger)))
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))
}

func TestKeyvals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []interface{}{"a", 1, "b", "two"}, keyvals(map[string]interface{}{"b": "two", "a": 1}))
	assert.Empty(t, keyvals(nil))
}

//nolint:paralleltest // viper is global
func TestConfigPersister_UpdateToken(t *testing.T) {
	path := useTempConfig(t)
	viper.Set("client_id", "client")

	expiresAt := time.Unix(1_400_001_200, 0).UTC()

	err := NewConfigPersister().UpdateToken(crest.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expiresAt,
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "client", saved.ClientID)
	assert.Equal(t, "access", saved.AccessToken)
	assert.Equal(t, "refresh", saved.RefreshToken)
	require.NotNil(t, saved.TokenExpiresAt)
	assert.True(t, expiresAt.Equal(*saved.TokenExpiresAt))
}

//nolint:paralleltest // viper is global
func TestGetCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = fmt.Fprintf(w, `{"motd": {"href": "http://%s/motd/"}, "serverName": "TRANQUILITY"}`, r.Host)
		case "/motd/":
			_, _ = w.Write([]byte(`{"message": "fly safe"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "resolve linked resource", args: []string{"motd", "--query", "message"}, want: "fly safe\n"},
		{name: "field of root", args: []string{"serverName"}, want: "TRANQUILITY\n"},
		{name: "follow path", args: []string{"motd.message", "--follow"}, want: "fly safe\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useTempConfig(t)
			viper.Set("public_endpoint", server.URL+"/")
			viper.Set("output", constants.FormatTable)

			var out bytes.Buffer

			cmd := NewGetCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&out)
			cmd.SetContext(WithLogger(context.Background(), NewLogger(&bytes.Buffer{}, false)))

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

//nolint:paralleltest // viper is global
func TestGetCommand_FollowFetchesFinalResourceOnce(t *testing.T) {
	var motdHits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = fmt.Fprintf(w, `{"motd": {"href": "http://%s/motd/"}}`, r.Host)
		case "/motd/":
			motdHits.Add(1)
			_, _ = fmt.Fprintf(w, `{"href": "http://%s/motd/", "message": "fly safe"}`, r.Host)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	useTempConfig(t)
	viper.Set("public_endpoint", server.URL+"/")
	viper.Set("output", constants.FormatTable)

	var out bytes.Buffer

	cmd := NewGetCommand()
	cmd.SetArgs([]string{"motd", "--follow", "--query", "message"})
	cmd.SetOut(&out)
	cmd.SetContext(WithLogger(context.Background(), NewLogger(&bytes.Buffer{}, false)))

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "fly safe\n", out.String())
	assert.Equal(t, int32(1), motdHits.Load())
}

//nolint:paralleltest // viper is global
func TestAuthURICommand(t *testing.T) {
	useTempConfig(t)
	viper.Set("client_id", "client")
	viper.Set("redirect_uri", "http://localhost/cb")

	var out, errOut bytes.Buffer

	cmd := NewAuthURICommand()
	cmd.SetArgs([]string{"--scope", "publicData", "--state", "s1"})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetContext(context.Background())

	require.NoError(t, cmd.Execute())
	assert.Equal(t,
		"https://login.eveonline.com/oauth/authorize?response_type=code&redirect_uri=http%3A%2F%2Flocalhost%2Fcb"+
			"&client_id=client&scope=publicData&state=s1\n",
		out.String())
	assert.Contains(t, errOut.String(), "state: s1")
}

//nolint:paralleltest // viper is global
func TestAuthURICommand_RequiresClientID(t *testing.T) {
	useTempConfig(t)

	cmd := NewAuthURICommand()
	cmd.SetArgs(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetContext(context.Background())

	assert.ErrorIs(t, cmd.Execute(), constants.ErrClientIDRequired)
}

//nolint:paralleltest // viper is global
func TestWhoamiCommand_RequiresSession(t *testing.T) {
	useTempConfig(t)

	cmd := NewWhoamiCommand()
	cmd.SetArgs(nil)
	cmd.SetContext(context.Background())

	assert.ErrorIs(t, cmd.Execute(), constants.ErrNotAuthenticated)
}
