// Package config loads service configuration with Viper.
//
// Load reads cmd/<service>/config.yml (or an explicit file), loads a
// .env file through godotenv, then lets environment variables override any
// key: UPSTREAM_CACHE_TTL=1m sets upstream.cache_ttl.
//
//	var cfg Config
//	if err := config.Load("memecraft", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
package config
