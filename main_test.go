package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book_creator/config"
	"book_creator/generator"
)

func TestBuildLLM(t *testing.T) {
	tests := []struct {
		name    string
		llm     config.LLMConfig
		wantErr string
	}{
		{name: "openai", llm: config.LLMConfig{Provider: "openai", Model: "gpt-3.5-turbo-1106", APIKey: "sk-test"}},
		{name: "provider is case-insensitive", llm: config.LLMConfig{Provider: "OpenAI", Model: "gpt-3.5-turbo-1106", APIKey: "sk-test"}},
		{name: "deepseek", llm: config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "sk-test", BaseURL: "https://api.deepseek.com/v1"}},
		{name: "deepseek without base url", llm: config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "sk-test"}, wantErr: "base_url"},
		{name: "mock", llm: config.LLMConfig{Provider: "mock"}},
		{name: "unknown", llm: config.LLMConfig{Provider: "claude"}, wantErr: "not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := buildLLM(config.Config{LLM: tt.llm})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, llm)
		})
	}
}

func TestBuildLLMMockIsOffline(t *testing.T) {
	llm, err := buildLLM(config.Config{LLM: config.LLMConfig{Provider: "mock"}})
	require.NoError(t, err)
	assert.IsType(t, generator.MockLLM{}, llm)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = newLogger(config.LogConfig{Level: "warn", Format: "text"})
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = newLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
