package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func Test_Config_Defaults(t *testing.T) {
	req := require.New(t)
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.NoError(config.Validate())
	req.Equal("badger", config.StoreBackend)
	req.Equal("memory", config.SubscriptionBackend)
	req.Equal(4, config.PushWorkers)
	req.Equal(2*time.Second, config.SinkTimeout)
	req.Equal([]string{"*"}, config.Origins())
	req.Equal("0.0.0.0:3000", config.Address())
	req.Equal("0.0.0.0:3001", config.GrpcHealthAddress())
}

func Test_Config_From_Environment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("PUSH_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.NoError(config.Validate())
	req.Equal("sqlite", config.StoreBackend)
	req.Equal(3*time.Second, config.PushTimeout)
	req.Equal(2.5, config.RateLimitPerSecond)
	req.Equal([]string{"https://a.example", "https://b.example"}, config.Origins())
}

func Test_Config_Validate_Rejects(t *testing.T) {
	valid := func() Config {
		var config Config
		_, err := env.UnmarshalFromEnviron(&config)
		require.NoError(t, err)
		return config
	}

	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown store backend", func(c *Config) { c.StoreBackend = "redis" }},
		{"unknown subscription backend", func(c *Config) { c.SubscriptionBackend = "sqlite" }},
		{"no push worker", func(c *Config) { c.PushWorkers = 0 }},
		{"health port equals http port", func(c *Config) { c.GrpcHealthPort = c.Port }},
		{"badger without path", func(c *Config) { c.BadgerFilepath = "" }},
		{"public key without private key", func(c *Config) { c.VapidPublicKey = "pub"; c.VapidPrivateKey = "" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "TRACE" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := valid()
			tc.mutate(&config)
			require.Error(t, config.Validate())
		})
	}
}
