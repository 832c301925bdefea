// Package chat is the simulated analyst behind the Predictions page. Replies
// come from hardcoded templates after an artificial delay; there is no model
// inference.
package chat

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// knownCoins lists the names the responder recognizes in a prompt, in match
// priority order, with the display name used in the reply.
var knownCoins = []struct {
	needle string
	name   string
}{
	{"bitcoin", "Bitcoin"},
	{"btc", "Bitcoin"},
	{"ethereum", "Ethereum"},
	{"eth", "Ethereum"},
	{"solana", "Solana"},
	{"sol", "Solana"},
	{"ripple", "XRP"},
	{"xrp", "XRP"},
	{"cardano", "Cardano"},
	{"ada", "Cardano"},
}

// templates take the detected asset name and a sentiment percentage.
var templates = []string{
	"Based on current market volatility and the moving averages for %s, we're seeing a bullish divergence. However, remember that I am an AI and this is financial entertainment, not advice. The sentiment analysis suggests a %d%% positive outlook for the coming week.",
	"Order-flow indicators for %s point to consolidation around current levels. Treat this as entertainment, not financial advice. Sentiment models read %d%% positive over the next few sessions.",
	"Momentum on %s has cooled, but accumulation patterns remain intact. None of this is financial advice. Aggregate sentiment currently sits at %d%% positive.",
}

// Greeting opens every new conversation.
const Greeting = "I am your AI Crypto Analyst. Ask me about market trends, price predictions, or sentiment analysis."

// Responder synthesizes analyst replies
type Responder struct {
	rand  *rand.Rand
	delay time.Duration
}

// NewResponder creates a responder with the default reply delay
func NewResponder() *Responder {
	return &Responder{
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		delay: 1500 * time.Millisecond,
	}
}

// NewSeededResponder creates a responder with a fixed seed and no delay,
// for tests
func NewSeededResponder(seed int64) *Responder {
	return &Responder{rand: rand.New(rand.NewSource(seed))}
}

// Reply produces an assistant reply for a user prompt, after the configured
// delay. The delay is interruptible; a canceled context returns early with
// the context error.
func (r *Responder) Reply(ctx context.Context, prompt string) (string, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	subject := "crypto assets"
	lower := strings.ToLower(prompt)
	for _, coin := range knownCoins {
		if strings.Contains(lower, coin.needle) {
			subject = coin.name
			break
		}
	}

	template := templates[r.rand.Intn(len(templates))]
	sentiment := 55 + r.rand.Intn(31)
	return fmt.Sprintf(template, subject, sentiment), nil
}
