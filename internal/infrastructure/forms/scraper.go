// Package forms reads the registrar's downloadable form list.
package forms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/baechuer/chatcpe-service/internal/application/documents"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

const maxPageBytes = 4 << 20

var fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "chatcpe",
	Name:      "forms_fetch_total",
	Help:      "Registrar form page fetches by outcome.",
}, []string{"outcome"})

type Scraper struct {
	pageURL *url.URL
	hc      *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

var _ documents.FormsSource = (*Scraper)(nil)

func NewScraper(pageURL string, timeout time.Duration, hc *http.Client, log zerolog.Logger) (*Scraper, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid forms url %q", pageURL)
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		pageURL: u,
		hc:      hc,
		timeout: timeout,
		log:     log.With().Str("component", "forms_scraper").Logger(),
	}, nil
}

func (s *Scraper) Fetch(ctx context.Context) ([]domain.FormLink, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.hc.Do(req)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("fetch forms page failed")
		return nil, fmt.Errorf("fetch forms page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fetchTotal.WithLabelValues("bad_status").Inc()
		s.log.Error().Int("status", resp.StatusCode).Msg("forms page returned non-2xx")
		return nil, fmt.Errorf("forms page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse forms page: %w", err)
	}

	links := s.extract(doc)
	fetchTotal.WithLabelValues("ok").Inc()
	return links, nil
}

// extract walks the first table on the page. Column 0 holds the form code,
// column 1 one or more links.
func (s *Scraper) extract(doc *goquery.Document) []domain.FormLink {
	out := []domain.FormLink{}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return out
	}

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.ChildrenFiltered("td")
		if cols.Length() < 2 {
			return
		}
		code := squash(cols.Eq(0).Text())

		cols.Eq(1).Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			href = strings.TrimSpace(href)
			if href == "" {
				return
			}
			out = append(out, domain.FormLink{
				Code:  code,
				Title: squash(a.Text()),
				URL:   s.resolve(href),
			})
		})
	})
	return out
}

func (s *Scraper) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return s.pageURL.ResolveReference(ref).String()
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
