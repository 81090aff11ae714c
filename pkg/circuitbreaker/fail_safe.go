package circuitbreaker

import (
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/rs/zerolog/log"
)

type FailSafeCB[Request, Response any] struct {
	Cb circuitbreaker.CircuitBreaker[any]
}

// GetCircuitBreaker builds a failsafe-go backed breaker from config.
func GetCircuitBreaker[Request, Response any](config *Config) CircuitBreaker[Request, Response] {
	cb := circuitbreaker.Builder[any]().
		WithFailureRateThreshold(uint(config.FailureRateThreshold), uint(config.FailureRateMinimumWindow), time.Duration(config.FailureRateWindowInMs)*time.Millisecond).
		WithSuccessThresholdRatio(uint(config.SuccessCountThreshold), uint(config.SuccessCountWindow)).
		WithDelay(time.Duration(config.WithDelayInMS) * time.Millisecond).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Debug().Msgf("Circuit Breaker '%s' changed state from %s to %s", config.Name, event.OldState, event.NewState)
		}).
		Build()
	return &FailSafeCB[Request, Response]{
		Cb: cb,
	}
}

func (f *FailSafeCB[Request, Response]) Execute(request Request, task func(Request) (Response, error)) (Response, error) {
	var result Response
	var taskErr error
	err := failsafe.Run(func() error {
		result, taskErr = task(request)
		if taskErr != nil {
			return taskErr
		}
		return nil
	}, f.Cb)

	if err != nil {
		return result, err
	}
	return result, nil
}
