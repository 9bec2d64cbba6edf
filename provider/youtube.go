package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
)

const youTubeResultsURL = "https://www.youtube.com/results?search_query=%s"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// YouTube searches by scraping the results page rather than
// going through the download client: the page endpoint is not
// subject to the same throttling as the media endpoints.
type YouTube struct {
	client     *http.Client
	resultsURL string
	identity   func() string
}

func NewYouTube(identity func() string) *YouTube {
	return &YouTube{
		client:     &http.Client{Timeout: 20 * time.Second},
		resultsURL: youTubeResultsURL,
		identity:   identity,
	}
}

// ytInitialData, reduced to the path that leads to search hits.
type initialData struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
}

func (yt *YouTube) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(yt.resultsURL, url.QueryEscape(query)), nil)
	if err != nil {
		return nil, err
	}
	if yt.identity != nil {
		request.Header.Set("User-Agent", yt.identity())
	}

	response, err := yt.client.Do(request)
	if err != nil {
		return nil, Transient(err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusTooManyRequests:
		return nil, Transient(fmt.Errorf("results page throttled: %s", response.Status))
	case response.StatusCode >= http.StatusInternalServerError:
		return nil, Transient(fmt.Errorf("results page unavailable: %s", response.Status))
	case response.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("results page rejected: %s", response.Status)
	}

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return nil, err
	}
	return scrape(document, limit)
}

func scrape(document *goquery.Document, limit int) ([]Candidate, error) {
	var payload string
	document.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		if text := script.Text(); strings.Contains(text, "ytInitialData") {
			payload = text
			return false
		}
		return true
	})
	if payload == "" {
		return nil, errors.New("results page carries no initial data blob")
	}

	start, end := strings.Index(payload, "{"), strings.LastIndex(payload, "}")
	if start < 0 || end <= start {
		return nil, errors.New("initial data blob is not parseable")
	}

	var data initialData
	if err := json.UnmarshalFromString(payload[start:end+1], &data); err != nil {
		return nil, fmt.Errorf("initial data blob does not decode: %w", err)
	}

	var candidates []Candidate
	for _, section := range data.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		for _, content := range section.ItemSectionRenderer.Contents {
			renderer := content.VideoRenderer
			if renderer.VideoID == "" || len(renderer.Title.Runs) == 0 {
				continue
			}
			candidates = append(candidates, Candidate{
				URL:      "https://www.youtube.com/watch?v=" + renderer.VideoID,
				Title:    renderer.Title.Runs[0].Text,
				Duration: parseDuration(renderer.LengthText.SimpleText),
			})
			if len(candidates) == limit {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}

// parseDuration turns "1:02:45" style length labels into seconds.
func parseDuration(label string) int {
	if label == "" {
		return 0
	}
	var seconds int
	for _, part := range strings.Split(label, ":") {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		seconds = seconds*60 + value
	}
	return seconds
}
