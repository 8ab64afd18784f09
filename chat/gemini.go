package chat

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient generates the "specific" narration sentences for confidently
// predicted doodle labels.
type GeminiClient struct {
	client *genai.Client
}

const narrationModel = "gemini-2.0-flash"

const narrationPromptTemplate = "You're a friendly kids drawing coach. A child is drawing something that " +
	"looks like a '%s'. Generate a short, playful sentence for narration that includes a fun emoji " +
	"relevant to the object or mood. Keep it short and kid-friendly."

// NewGeminiClient creates a Gemini client using the GEMINI_API_KEY
// environment variable.
func NewGeminiClient(ctx context.Context) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiClient{client: client}, nil
}

// GenerateNarrationText asks Gemini for one playful sentence about the label.
// An empty result is returned as-is; the synthesizer owns the fallback.
func (g *GeminiClient) GenerateNarrationText(ctx context.Context, label string) (string, error) {
	prompt := fmt.Sprintf(narrationPromptTemplate, label)
	userContent := genai.NewContentFromText(prompt, genai.RoleUser)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		TopP:            genai.Ptr(float32(0.8)),
		TopK:            genai.Ptr(float32(40)),
		MaxOutputTokens: int32(60),
	}

	resp, err := g.client.Models.GenerateContent(ctx, narrationModel, []*genai.Content{userContent}, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate narration text: %v", err)
	}

	text := strings.TrimSpace(resp.Text())
	// Gemini likes markdown emphasis; the narration is spoken, not rendered.
	text = strings.ReplaceAll(text, "*", "")

	return text, nil
}
