package scraper

import (
	"context"
	"log"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/browser"
	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/interact"
)

// browserSession is the slice of *browser.Session the adapters use. Tests
// substitute an in-memory fake; production always gets a real Chrome.
type browserSession interface {
	interact.Page
	Navigate(url string) error
	Evaluate(js string, out any) error
	Cookies() ([]byte, error)
	SetCookies(payload []byte) error
	Sleep(d time.Duration)
	Close()
}

type sessionFactory func(ctx context.Context) (browserSession, error)

func newBrowserFactory(cfg config.ScraperConfig, logger *log.Logger) sessionFactory {
	return func(ctx context.Context) (browserSession, error) {
		return browser.New(ctx, browser.Config{
			Headless:      cfg.Headless,
			UserAgent:     cfg.UserAgent,
			ActionTimeout: cfg.ActionTimeout,
		}, logger)
	}
}

// jobCard is the raw card data adapters lift off a results page before
// converting to a domain posting.
type jobCard struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Salary   string `json:"salary"`
	Posted   string `json:"posted"`
	// Text carries the card's full prose for adapters that mine salary,
	// equity and funding details out of free text.
	Text string `json:"text"`
}
