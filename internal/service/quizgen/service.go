// Package quizgen uploads staged lesson files to the Gemini File API, runs a
// single fixed-prompt generation call over them, and returns the raw text
// response. Remote copies are deleted on every exit path; a lingering remote
// file is a cost problem, not a correctness one, so delete failures only warn.
package quizgen

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"zrozumto/internal/config"
	"zrozumto/internal/logger"
)

var (
	// ErrUpload marks a failure to push a staged file to the model service.
	ErrUpload = errors.New("quizgen: upload failed")
	// ErrGeneration marks a failure of the generation call itself.
	ErrGeneration = errors.New("quizgen: generation failed")
)

// Service is the generation adapter around the Gemini client.
type Service struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewService builds the adapter from app config.
func NewService(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Service{client: client, model: cfg.Model, log: log}, nil
}

// Generate uploads the local files in order, issues one generation call with
// the fixed prompt, and returns the raw textual response. Whatever happens,
// every remote file uploaded during this call is deleted before returning.
func (s *Service) Generate(ctx context.Context, localPaths []string) (text string, err error) {
	if len(localPaths) == 0 {
		return "", fmt.Errorf("%w: no input files", ErrUpload)
	}

	var uploaded []*genai.File
	defer func() {
		for _, f := range uploaded {
			if _, delErr := s.client.Files.Delete(ctx, f.Name, nil); delErr != nil {
				s.log.Warn("delete remote file failed", "file", f.Name, "error", delErr)
			}
		}
	}()

	for _, path := range localPaths {
		f, upErr := s.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
			MIMEType: mimeTypeFor(path),
		})
		if upErr != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUpload, filepath.Base(path), upErr)
		}
		uploaded = append(uploaded, f)
		s.log.Debug("uploaded lesson file", "local", path, "remote", f.Name)
	}

	parts := make([]*genai.Part, 0, len(uploaded)+1)
	for _, f := range uploaded {
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(quizPrompt))

	resp, genErr := s.client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if genErr != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, genErr)
	}
	text = resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return text, nil
}

func mimeTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
