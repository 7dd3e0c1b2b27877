package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

const scanPrompt = `Read the equation in this photo of a letter puzzle.

The equation is written with these symbols only:
- letters: %s
- arithmetic operators: + - * /
- comparison operators: > <
- one integer on the right-hand side

Return the symbols from left to right as JSON:
{"symbols": ["A", "+", "B", ">", "10"]}

Rules:
- One array element per symbol. Integers are a single element and keep their sign.
- Use "*" for multiplication signs such as x or ·, and "/" for ÷.
- Reply ONLY with the JSON, no comment or markdown.`

// ScanEquation sends a photo to Gemini and returns the tiles it reads, in
// order. The tiles are not validated against the equation grammar.
func (g *GeminiClient) ScanEquation(ctx context.Context, imageData []byte, mimeType string, alphabet Alphabet) ([]Tile, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(scanPrompt, strings.Join(strings.Split(alphabet.String(), ""), " "))},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageData}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.1)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}
	return parseScanResponse(text, alphabet)
}

// parseScanResponse decodes the model's JSON answer into tiles. Symbols may
// come back as strings or bare numbers.
func parseScanResponse(text string, alphabet Alphabet) ([]Tile, error) {
	var raw struct {
		Symbols []json.RawMessage `json:"symbols"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse scan JSON: %w\nraw response: %s", err, text)
	}
	if len(raw.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols in scan response")
	}

	symbols := make([]string, len(raw.Symbols))
	for i, m := range raw.Symbols {
		var s string
		if err := json.Unmarshal(m, &s); err == nil {
			symbols[i] = s
			continue
		}
		var n int64
		if err := json.Unmarshal(m, &n); err != nil {
			return nil, fmt.Errorf("symbol %d: %s is neither string nor integer", i, m)
		}
		symbols[i] = strconv.FormatInt(n, 10)
	}
	return ParseTiles(symbols, alphabet)
}
