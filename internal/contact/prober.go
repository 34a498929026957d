package contact

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultProbeTimeout = 10 * time.Second

type Status struct {
	Name       string
	URL        string
	StatusCode int
	Reachable  bool
	Err        error
}

// Prober checks that the contact links still resolve.
type Prober struct {
	httpClient *resty.Client
}

func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", "neotutor-link-check")
	return &Prober{httpClient: client}
}

func (p *Prober) Probe(ctx context.Context, links Links) []Status {
	all := links.All()
	statuses := make([]Status, 0, len(all))
	for _, link := range all {
		status := p.probe(ctx, link)
		slog.Default().Debug("Probed contact link",
			"name", status.Name,
			"url", status.URL,
			"statusCode", status.StatusCode,
			"reachable", status.Reachable)
		statuses = append(statuses, status)
	}
	return statuses
}

func (p *Prober) probe(ctx context.Context, link Link) Status {
	status := Status{Name: link.Name, URL: link.URL}

	res, err := p.httpClient.R().
		SetContext(ctx).
		Head(link.URL)
	if err == nil && res.StatusCode() == http.StatusMethodNotAllowed {
		res, err = p.httpClient.R().
			SetContext(ctx).
			Get(link.URL)
	}
	if err != nil {
		status.Err = fmt.Errorf("httpClient.R > %w", err)
		return status
	}

	status.StatusCode = res.StatusCode()
	status.Reachable = res.StatusCode() < http.StatusBadRequest
	if !status.Reachable {
		status.Err = fmt.Errorf("status code: %d", res.StatusCode())
	}
	return status
}
