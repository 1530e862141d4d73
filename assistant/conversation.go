package assistant

import (
	"context"
	"strings"
	"sync"

	"worklens/llm"
)

const (
	chatModel   = "gpt-4-turbo-preview"
	chatHistory = 20

	chatSystem = `You are an intelligent voice assistant integrated into an activity tracking application.
You help users by:
- Providing insights about their screen recordings and activity
- Answering questions about productivity
- Offering helpful suggestions
- Being concise and clear in your responses

Keep responses brief and conversational (2-3 sentences max unless asked for detail).`
)

// Conversation keeps the rolling chat history for text turns with the
// assistant.
type Conversation struct {
	client llm.Client

	mu      sync.Mutex
	history []llm.Message
}

func NewConversation(client llm.Client) *Conversation {
	return &Conversation{client: client}
}

// Turn appends the user message, asks the model with the recent
// history, records the reply and returns it.
func (c *Conversation) Turn(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	c.history = append(c.history, llm.Message{Role: "user", Content: text})
	recent := c.history
	if len(recent) > chatHistory {
		recent = recent[len(recent)-chatHistory:]
	}
	messages := make([]llm.Message, 0, len(recent)+1)
	messages = append(messages, llm.Message{Role: "system", Content: chatSystem})
	messages = append(messages, recent...)
	c.mu.Unlock()

	reply, err := c.client.Complete(ctx, chatModel, messages, llm.Options{
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)

	c.mu.Lock()
	c.history = append(c.history, llm.Message{Role: "assistant", Content: reply})
	c.mu.Unlock()
	return reply, nil
}

// Clear discards the conversation history.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}
