package deepresearch

import (
	"fmt"

	"github.com/hupe1980/deepresearch/config"
	"github.com/hupe1980/deepresearch/logging"
	"github.com/hupe1980/deepresearch/model"
	"github.com/hupe1980/deepresearch/model/anthropic"
	"github.com/hupe1980/deepresearch/model/openai"
)

// NewModelFromConfig creates the model client selected by cfg.Model.
func NewModelFromConfig(cfg *config.Config) (model.Model, error) {
	mc := cfg.Model

	switch mc.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = mc.Name
			o.APIKey = mc.APIKey
			o.BaseURL = mc.BaseURL
			o.Temperature = mc.Temperature
			o.MaxCompletionTokens = mc.MaxCompletionTokens
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = mc.Name
			o.APIKey = mc.APIKey
			o.BaseURL = mc.BaseURL
			o.Temperature = mc.Temperature
			if mc.MaxCompletionTokens > 0 {
				o.MaxTokens = mc.MaxCompletionTokens
			}
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", mc.Provider)
	}
}

// NewLoggerFromConfig builds the structured logger described by cfg.Log.
func NewLoggerFromConfig(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.Log.Format
	lc.Component = "deepresearch"

	return logging.New(lc), nil
}

// NewFromConfig builds the model client and assistant described by cfg.
// Further options are applied after the config derived ones.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*Assistant, error) {
	llm, err := NewModelFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger, err := NewLoggerFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	fns := append([]func(o *Options){func(o *Options) {
		o.Workflow = Workflow(cfg.Workflow)
		o.MaxModelCalls = cfg.MaxModelCalls
		o.Logger = logger
	}}, optFns...)

	return New(llm, fns...), nil
}
