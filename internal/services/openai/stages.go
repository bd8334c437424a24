package openai

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"murmur/internal/ai"
	"murmur/internal/services"
)

// Transcribe sends the recording to the speech-to-text model and returns the
// transcript.
func (c *Client) Transcribe(ctx context.Context, audio []byte, ref string) (string, error) {
	if len(audio) == 0 {
		return "", services.Wrap(services.ErrValidation, "transcribe", "request", "empty audio", nil)
	}

	fileName := filepath.Base(ref)
	if fileName == "" || fileName == "." {
		fileName = "recording.m4a"
	}

	var transcript string
	err := c.withRetry(ctx, "transcribe", func() error {
		resp, err := c.api.CreateTranscription(ctx, goopenai.AudioRequest{
			Model:    c.cfg.TranscribeModel,
			FilePath: fileName,
			Reader:   bytes.NewReader(audio),
		})
		if err != nil {
			return err
		}
		transcript = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return "", services.Wrap(classify(err), "transcribe", "create transcription", "", err)
	}
	if transcript == "" {
		return "", services.Wrap(services.ErrProvider, "transcribe", "create transcription", "empty transcript", nil)
	}
	return transcript, nil
}

// Summarize asks the chat model for a short summary of the transcript.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", services.Wrap(services.ErrValidation, "summarize", "request", "empty transcript", nil)
	}

	content, err := c.chat(ctx, "summarize", SummaryPrompt,
		"Please summarize this journal entry:\n\n"+transcript, 200, 0.7)
	if err != nil {
		return "", err
	}
	return content, nil
}

// Classify asks the chat model for the dominant emotion label. Output outside
// the vocabulary is normalized to neutral.
func (c *Client) Classify(ctx context.Context, transcript string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", services.Wrap(services.ErrValidation, "emotion", "request", "empty transcript", nil)
	}

	content, err := c.chat(ctx, "emotion", EmotionPrompt,
		"What is the primary emotion in this journal entry?\n\n"+transcript, 10, 0.3)
	if err != nil {
		return "", err
	}
	return ai.NormalizeEmotion(content), nil
}

func (c *Client) chat(ctx context.Context, stage, systemPrompt, userPrompt string, maxTokens int, temperature float32) (string, error) {
	var content string
	err := c.withRetry(ctx, stage, func() error {
		resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
			Model: c.cfg.ChatModel,
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: goopenai.ChatMessageRoleUser, Content: userPrompt},
			},
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty choices")
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return errors.New("empty completion content")
		}
		return nil
	})
	if err != nil {
		return "", services.Wrap(classify(err), stage, "chat completion", "", err)
	}
	return content, nil
}

// Suite returns the client packaged as the pipeline's stage adapters.
func (c *Client) Suite() ai.Suite {
	return ai.Suite{
		Transcriber: c,
		Summarizer:  c,
		Classifier:  c,
	}
}
