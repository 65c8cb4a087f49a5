package ws

import (
	"encoding/json"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
)

type scrapeEvent struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Status    string `json:"status,omitempty"`
	Postings  int    `json:"postings,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ScrapeNotifier bridges orchestrator lifecycle events onto the hub.
type ScrapeNotifier struct {
	hub *Hub
}

func NewScrapeNotifier(hub *Hub) *ScrapeNotifier {
	return &ScrapeNotifier{hub: hub}
}

func (n *ScrapeNotifier) ScrapeStarted(source string) {
	n.publish(scrapeEvent{
		Type:      "scrape_started",
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *ScrapeNotifier) ScrapeFinished(source string, status scraper.Status, postings int) {
	n.publish(scrapeEvent{
		Type:      "scrape_finished",
		Source:    source,
		Status:    string(status),
		Postings:  postings,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *ScrapeNotifier) publish(evt scrapeEvent) {
	if n == nil || n.hub == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
