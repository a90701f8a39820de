package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout   = 10 * time.Second
)

// FallbackAdvice is returned whenever the advice service cannot answer
const FallbackAdvice = "Não foi possível obter orientações no momento. Por favor, consulte o manual da ANVISA."

var (
	ErrInvalidAPIKey = errors.New("invalid or missing api key")
	ErrNoAdvice      = errors.New("advice response has no text")
	ErrAPIError      = errors.New("gemini api error")
)

// AdviceCache stores generated advice between requests
type AdviceCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// AdvisorService asks Gemini for handling guidance about a product
type AdvisorService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	cache      AdviceCache
	log        zerolog.Logger
}

// NewAdvisorService creates an advisor. cache may be nil.
func NewAdvisorService(apiKey, model, baseURL string, timeout time.Duration, cache AdviceCache, logger zerolog.Logger) *AdvisorService {
	if baseURL == "" {
		baseURL = defaultGeminiURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AdvisorService{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: cache,
		log:   logger,
	}
}

// BuildPrompt returns the consultant prompt for a product and its status label
func BuildPrompt(productName, status string) string {
	return fmt.Sprintf(`Você é um consultor farmacêutico especialista. O produto "%s" está com status "%s".
Forneça orientações curtas e profissionais (máximo 3 tópicos) sobre:
1. Se estiver vencido: Como descartar corretamente de acordo com normas ambientais.
2. Se estiver próximo ao vencimento: Dicas de armazenamento ou priorização de uso.
3. Uma curiosidade técnica ou cuidado padrão para este tipo de medicamento.
Seja direto, ético e use um tom profissional.`, productName, status)
}

// Advice returns guidance text, or FallbackAdvice when generation fails.
// It never returns an error so callers can always show something.
func (s *AdvisorService) Advice(ctx context.Context, productName, status string) string {
	key := cacheKey(productName, status)

	if s.cache != nil {
		if text, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("advice cache read failed")
		} else if ok {
			return text
		}
	}

	text, err := s.Generate(ctx, productName, status)
	if err != nil {
		s.log.Error().Err(err).Str("product", productName).Msg("advice generation failed")
		return FallbackAdvice
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text); err != nil {
			s.log.Warn().Err(err).Msg("advice cache write failed")
		}
	}
	return text
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate calls the generateContent endpoint once
func (s *AdvisorService) Generate(ctx context.Context, productName, status string) (string, error) {
	if s.apiKey == "" {
		return "", ErrInvalidAPIKey
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: BuildPrompt(productName, status)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if genResp.Error != nil {
			return "", fmt.Errorf("%w: %d %s", ErrAPIError, genResp.Error.Code, genResp.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var sb strings.Builder
	for _, c := range genResp.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoAdvice
	}
	return text, nil
}

func cacheKey(productName, status string) string {
	return fmt.Sprintf("pex:advice:%s:%s", strings.ToLower(strings.TrimSpace(productName)), status)
}
