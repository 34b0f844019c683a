package conf

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnvGetter map[string]string

func (g fakeEnvGetter) Get(key string) string {
	return g[key]
}

type testConfig struct {
	Name       string        `env:"NAME"`
	Backend    string        `env:"BACKEND,opt[simple,multipart,put,s3]"`
	Endpoint   string        `env:"ENDPOINT,required"`
	Interval   time.Duration `env:"INTERVAL"`
	Retries    int           `env:"RETRIES"`
	Verbose    bool          `env:"VERBOSE"`
	APIKey     Secret        `env:"API_KEY"`
	Extensions []string      `env:"EXTENSIONS"`
	ignored    string
}

func TestParse(t *testing.T) {
	parser := NewInputParser(fakeEnvGetter{
		"NAME":       "world",
		"BACKEND":    "multipart",
		"ENDPOINT":   "https://share.example.com",
		"INTERVAL":   "10m",
		"RETRIES":    "3",
		"VERBOSE":    "true",
		"API_KEY":    "hunter2",
		"EXTENSIONS": ".zip|.db",
	})

	var config testConfig
	require.NoError(t, parser.Parse(&config))

	assert.Equal(t, "world", config.Name)
	assert.Equal(t, "multipart", config.Backend)
	assert.Equal(t, "https://share.example.com", config.Endpoint)
	assert.Equal(t, 10*time.Minute, config.Interval)
	assert.Equal(t, 3, config.Retries)
	assert.True(t, config.Verbose)
	assert.Equal(t, Secret("hunter2"), config.APIKey)
	assert.Equal(t, []string{".zip", ".db"}, config.Extensions)
}

func TestParse_RequiredMissing(t *testing.T) {
	parser := NewInputParser(fakeEnvGetter{})

	var config testConfig
	err := parser.Parse(&config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENDPOINT")
}

func TestParse_InvalidOption(t *testing.T) {
	parser := NewInputParser(fakeEnvGetter{
		"ENDPOINT": "https://x",
		"BACKEND":  "ftp",
	})

	var config testConfig
	err := parser.Parse(&config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND")
}

func TestParse_InvalidValue(t *testing.T) {
	parser := NewInputParser(fakeEnvGetter{
		"ENDPOINT": "https://x",
		"RETRIES":  "many",
	})

	var config testConfig
	require.Error(t, parser.Parse(&config))
}

func TestParse_NotAStructPointer(t *testing.T) {
	parser := NewInputParser(fakeEnvGetter{})
	require.Error(t, parser.Parse("not a struct"))
}

func TestSecret_Redaction(t *testing.T) {
	assert.Equal(t, secretMask, fmt.Sprintf("%v", Secret("hunter2")))
	assert.Equal(t, "", fmt.Sprintf("%v", Secret("")))
}
