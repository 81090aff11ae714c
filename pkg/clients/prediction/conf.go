package prediction

import (
	"encoding/json"
	"fmt"
)

const (
	defaultPollIntervalMS    = 500
	defaultPollMaxIntervalMS = 5000
	defaultPollTimeoutMS     = 300000
	defaultMaxConcurrency    = 8
)

type ClientConfig struct {
	Host             string `json:"Host"`
	Port             string `json:"Port"`
	Scheme           string `json:"Scheme"`
	DeadlineExceedMS int    `json:"DeadlineExceedMS"`
	// PollIntervalMS is the initial delay between result polls; the delay
	// backs off exponentially up to PollMaxIntervalMS.
	PollIntervalMS    int `json:"PollIntervalMS"`
	PollMaxIntervalMS int `json:"PollMaxIntervalMS"`
	// PollTimeoutMS is the per-job wall-clock budget for polling. Exceeding
	// it abandons the client-side wait only; the remote job keeps running.
	PollTimeoutMS int `json:"PollTimeoutMS"`
	// BatchTimeoutMS bounds a whole batched call. Zero disables the batch
	// budget.
	BatchTimeoutMS int `json:"BatchTimeoutMS"`
	// MaxConcurrency caps in-flight sub-jobs during batch fan-out.
	MaxConcurrency int `json:"MaxConcurrency"`
	// ApiKey overrides the CSA_API_KEY environment variable when set.
	ApiKey   string `json:"ApiKey"`
	CallerId string `json:"CallerId"`
}

func getClientConfigs(configBytes []byte) (*ClientConfig, error) {
	conf := &ClientConfig{}

	err := json.Unmarshal(configBytes, &conf)
	if err != nil {
		return nil, err
	}

	if conf.PollIntervalMS <= 0 {
		conf.PollIntervalMS = defaultPollIntervalMS
	}
	if conf.PollMaxIntervalMS <= 0 {
		conf.PollMaxIntervalMS = defaultPollMaxIntervalMS
	}
	if conf.PollTimeoutMS <= 0 {
		conf.PollTimeoutMS = defaultPollTimeoutMS
	}
	if conf.MaxConcurrency <= 0 {
		conf.MaxConcurrency = defaultMaxConcurrency
	}

	if valid, err := validConfigs(conf); !valid {
		return nil, err
	}

	return conf, nil
}

func validConfigs(configs *ClientConfig) (bool, error) {
	if configs.Host == "" {
		return false, fmt.Errorf("prediction service host is invalid, configured value: %v", configs.Host)
	}
	if configs.DeadlineExceedMS <= 0 {
		return false, fmt.Errorf("prediction service deadline exceed timeout is invalid, configured value: %v",
			configs.DeadlineExceedMS)
	}
	if configs.PollIntervalMS > configs.PollMaxIntervalMS {
		return false, fmt.Errorf("prediction service poll interval %v exceeds max interval %v",
			configs.PollIntervalMS, configs.PollMaxIntervalMS)
	}
	if configs.CallerId == "" {
		return false, fmt.Errorf("prediction service caller id not configured")
	}
	return true, nil
}
