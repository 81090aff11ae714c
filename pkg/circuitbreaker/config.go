package circuitbreaker

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	CBEnabled                  = "_CB_ENABLED"
	CBName                     = "_CB_NAME"
	CBFailureRateThreshold     = "_CB_FAILURE_RATE_THRESHOLD"
	CBFailureRateMinimumWindow = "_CB_FAILURE_RATE_MINIMUM_WINDOW"
	CBFailureRateWindowInMs    = "_CB_FAILURE_RATE_WINDOW_IN_MS"
	CBSuccessCountThreshold    = "_CB_SUCCESS_COUNT_THRESHOLD"
	CBSuccessCountWindow       = "_CB_SUCCESS_COUNT_WINDOW"
	CBWithDelayInMS            = "_CB_WITH_DELAY_IN_MS"
)

// Config defines the thresholds and windows controlling a circuit breaker.
type Config struct {
	// Enabled determines whether the circuit breaker is active. When false,
	// all requests pass through.
	Enabled bool

	// Name identifies the breaker in logs and metrics.
	Name string

	// FailureRateThreshold is the failure percentage (1-100) that trips the
	// breaker, evaluated over FailureRateWindowInMs once at least
	// FailureRateMinimumWindow executions have been recorded.
	FailureRateThreshold     int
	FailureRateMinimumWindow int
	FailureRateWindowInMs    int

	// SuccessCountThreshold is the success ratio required over
	// SuccessCountWindow half-open executions to close the breaker again.
	SuccessCountThreshold int
	SuccessCountWindow    int

	// WithDelayInMS delays state transitions to let the remote service
	// stabilize.
	WithDelayInMS int
}

// BuildConfig loads breaker configuration for the given env prefix. A prefix
// without _CB_ENABLED=true yields a disabled config.
func BuildConfig(envPrefix string) *Config {
	cbConfig := Config{
		Enabled: false,
	}

	if viper.IsSet(envPrefix+CBEnabled) && viper.GetBool(envPrefix+CBEnabled) {
		cbConfig.Enabled = true
		validateConfigs(envPrefix)
		cbConfig.Name = viper.GetString(envPrefix + CBName)
		cbConfig.FailureRateThreshold = viper.GetInt(envPrefix + CBFailureRateThreshold)
		cbConfig.FailureRateMinimumWindow = viper.GetInt(envPrefix + CBFailureRateMinimumWindow)
		cbConfig.FailureRateWindowInMs = viper.GetInt(envPrefix + CBFailureRateWindowInMs)
		cbConfig.SuccessCountThreshold = viper.GetInt(envPrefix + CBSuccessCountThreshold)
		cbConfig.SuccessCountWindow = viper.GetInt(envPrefix + CBSuccessCountWindow)
		cbConfig.WithDelayInMS = viper.GetInt(envPrefix + CBWithDelayInMS)

		if cbConfig.FailureRateThreshold == 0 || cbConfig.FailureRateMinimumWindow == 0 || cbConfig.FailureRateWindowInMs == 0 {
			log.Panic().Msgf("%s: Configuration invalid, time-based failure thresholds are not fully defined", envPrefix)
		}
	}

	return &cbConfig
}

func validateConfigs(envPrefix string) {
	if !viper.IsSet(envPrefix + CBName) {
		log.Panic().Msgf("%s%s not set", envPrefix, CBName)
	}
	if !viper.IsSet(envPrefix + CBFailureRateThreshold) {
		log.Panic().Msgf("%s%s not set", envPrefix, CBFailureRateThreshold)
	}
	if !viper.IsSet(envPrefix + CBFailureRateMinimumWindow) {
		log.Panic().Msgf("%s%s not set", envPrefix, CBFailureRateMinimumWindow)
	}
	if !viper.IsSet(envPrefix + CBFailureRateWindowInMs) {
		log.Panic().Msgf("%s%s not set", envPrefix, CBFailureRateWindowInMs)
	}
	if !viper.IsSet(envPrefix + CBSuccessCountThreshold) {
		log.Panic().Msgf("%s%s not set", envPrefix, CBSuccessCountThreshold)
	}
	if !viper.IsSet(envPrefix + CBSuccessCountWindow) {
		log.Panic().Msgf("%s%s not set", envPrefix, CBSuccessCountWindow)
	}
	if !viper.IsSet(envPrefix + CBWithDelayInMS) {
		log.Panic().Msgf("%s%s not set", envPrefix, CBWithDelayInMS)
	}
}
