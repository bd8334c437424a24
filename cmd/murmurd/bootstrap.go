package main

import (
	"context"
	"fmt"

	"murmur/internal/ai"
	"murmur/internal/audiostore"
	"murmur/internal/config"
	"murmur/internal/services/openai"
)

func buildAudioStore(ctx context.Context, cfg *config.Config) (audiostore.Store, error) {
	store, err := audiostore.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("audio backend %q: %w", cfg.AudioStore.Backend, err)
	}
	return store, nil
}

func buildSuite(cfg *config.Config) (ai.Suite, error) {
	switch cfg.AI.Mode {
	case config.ModeMock:
		return ai.MockSuite(), nil
	case config.ModeOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:          cfg.AI.APIKey,
			BaseURL:         cfg.AI.BaseURL,
			ChatModel:       cfg.AI.ChatModel,
			TranscribeModel: cfg.AI.TranscribeModel,
			TimeoutSeconds:  cfg.AI.TimeoutSeconds,
		})
		if err != nil {
			return ai.Suite{}, err
		}
		return client.Suite(), nil
	default:
		return ai.Suite{}, fmt.Errorf("unknown ai mode %q", cfg.AI.Mode)
	}
}
