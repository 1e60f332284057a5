package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"Musebox/internal/config"
	"Musebox/internal/models"
)

// TaggerService classifies LoRA trigger words through an opaque
// generative-text backend: lines of tags in, base tags plus named
// variation groups out.
type TaggerService interface {
	AnalyzeTags(ctx context.Context, triggerWords []string) (*models.TagAnalysis, error)
}

var ErrTaggerNotConfigured = errors.New("tagger apiKey is not configured")

type taggerServiceImpl struct {
	configuration *config.Configuration
	logService    LogService
	client        *http.Client
}

func NewTaggerService(configuration *config.Configuration, logService LogService) TaggerService {
	return &taggerServiceImpl{
		configuration: configuration,
		logService:    logService,
		client: &http.Client{
			Timeout: time.Duration(configuration.Tagger.TimeoutSeconds) * time.Second,
		},
	}
}

// AnalyzeTags dispatches the words in small chunks with a pause between
// them, purely to stay under the backend's rate limits. A chunk that comes
// back empty or blocked is retried once whole, then line by line; lines
// that still fail are reported as skipped. Cancelling ctx stops further
// chunks but does not kill the one in flight.
func (s *taggerServiceImpl) AnalyzeTags(ctx context.Context, triggerWords []string) (*models.TagAnalysis, error) {
	if s.configuration.Tagger.APIKey == "" {
		return nil, ErrTaggerNotConfigured
	}

	chunkSize := s.configuration.Tagger.ChunkSize
	pause := time.Duration(s.configuration.Tagger.PauseMillis) * time.Millisecond

	result := &models.TagAnalysis{Base: []string{}, Variations: []models.TagVariationGroup{}}
	for start := 0; start < len(triggerWords); start += chunkSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(pause):
			}
		}
		end := start + chunkSize
		if end > len(triggerWords) {
			end = len(triggerWords)
		}
		chunk := triggerWords[start:end]

		analysis, err := s.classifyChunk(ctx, chunk)
		if err != nil {
			// retry the whole chunk once, then fall back to per-line
			analysis, err = s.classifyChunk(ctx, chunk)
			if err != nil {
				analysis = s.classifyPerLine(ctx, chunk)
			}
		}
		mergeAnalysis(result, analysis)
	}
	return result, nil
}

func (s *taggerServiceImpl) classifyPerLine(ctx context.Context, chunk []string) *models.TagAnalysis {
	merged := &models.TagAnalysis{}
	for _, line := range chunk {
		analysis, err := s.classifyChunk(ctx, []string{line})
		if err != nil {
			s.logService.Log.WithFields(logrus.Fields{
				"line":  line,
				"error": err.Error(),
			}).Warn("tag classification skipped a line")
			merged.Skipped = append(merged.Skipped, line)
			continue
		}
		mergeAnalysis(merged, analysis)
	}
	return merged
}

func mergeAnalysis(dst, src *models.TagAnalysis) {
	if src == nil {
		return
	}
	seen := make(map[string]bool, len(dst.Base))
	for _, b := range dst.Base {
		seen[b] = true
	}
	for _, b := range src.Base {
		if !seen[b] {
			dst.Base = append(dst.Base, b)
			seen[b] = true
		}
	}
	dst.Variations = append(dst.Variations, src.Variations...)
	dst.Skipped = append(dst.Skipped, src.Skipped...)
}

const classifierInstruction = `You sort AI-image-generation trigger tags. ` +
	`Given one tag line per input line, return JSON {"base": [...], "variations": [{"name": ..., "prompts": [...]}]} ` +
	`where base holds tags shared by every look and each variation groups tags belonging to one distinct look. Return only JSON.`

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (s *taggerServiceImpl) classifyChunk(ctx context.Context, lines []string) (*models.TagAnalysis, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.configuration.Tagger.Model,
		Messages: []chatMessage{
			{Role: "system", Content: classifierInstruction},
			{Role: "user", Content: strings.Join(lines, "\n")},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.configuration.Tagger.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.configuration.Tagger.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tagger backend returned %d: %s", resp.StatusCode, string(payload))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("malformed tagger response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("empty tagger response")
	}
	choice := chat.Choices[0]
	if choice.FinishReason == "content_filter" || strings.TrimSpace(choice.Message.Content) == "" {
		return nil, errors.New("tagger response blocked or empty")
	}

	var analysis models.TagAnalysis
	content := extractJSON(choice.Message.Content)
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("unparseable classification: %w", err)
	}
	return &analysis, nil
}

// extractJSON tolerates markdown code fences around the returned object.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return trimmed[start : end+1]
		}
	}
	return trimmed
}
