package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/autovista-ai/dealership-ai-platform/internal/conversation"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Test conversation with multiple turns
	messages := []conversation.ChatMessage{
		{Role: conversation.ChatRoleCustomer, Content: "Hi, I'm interested in the 2024 Honda Civic. Do you have any in stock?"},
		{Role: conversation.ChatRoleAssistant, Content: "Great choice! We have several 2024 Civics on the lot, including the Sport and EX trims. Would you like to come in for a test drive?"},
		{Role: conversation.ChatRoleCustomer, Content: "Yes, what times are available this week?"},
	}

	systemPrompt := []string{
		"You are a friendly dealership sales assistant. Keep responses brief and helpful.",
	}

	req := conversation.LLMRequest{
		System:      systemPrompt,
		Messages:    messages,
		MaxTokens:   200,
		Temperature: 0.7,
	}

	fmt.Println("LLM Provider Test")
	fmt.Println("-----------------")

	// Test Gemini directly
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey != "" {
		fmt.Println("\n[1] Testing Gemini directly...")
		geminiClient, err := conversation.NewGeminiLLMClient(ctx, geminiKey, "gemini-2.5-flash")
		if err != nil {
			fmt.Printf("    failed to create Gemini client: %v\n", err)
		} else {
			start := time.Now()
			resp, err := geminiClient.Complete(ctx, req)
			elapsed := time.Since(start)
			if err != nil {
				fmt.Printf("    Gemini error: %v\n", err)
			} else {
				fmt.Printf("    Gemini response (%v):\n", elapsed.Round(time.Millisecond))
				fmt.Printf("    %s\n", resp.Text)
				fmt.Printf("    Tokens: in=%d, out=%d\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
			}
		}
	} else {
		fmt.Println("\n[1] Skipping Gemini test (GEMINI_API_KEY not set)")
	}

	fmt.Println("\n[2] Skipping direct Bedrock test (requires AWS SDK setup)")
	fmt.Println("    Bedrock is exercised via the fallback chain in the full app")

	fmt.Println("\nTo test the full fallback flow:")
	fmt.Println("  1. Run: docker compose up")
	fmt.Println("  2. POST a message to /api/v1/conversations/message")
	fmt.Println("  3. Watch logs for: 'primary LLM failed, attempting fallback'")
}
