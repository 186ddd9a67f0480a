package news

import (
	"encoding/base64"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	summaryLength     = 200
	wordsPerMinute    = 200
	maxReadingMinutes = 15
	idLength          = 32
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)
	imgPattern = regexp.MustCompile(`<img[^>]+src="([^">]+)"`)
)

// ItemID derives a stable id from the guid, the link, or name-title-published
func ItemID(guid, link, sourceName, title, published string) string {
	unique := guid
	if unique == "" {
		unique = link
	}
	if unique == "" {
		unique = fmt.Sprintf("%s-%s-%s", sourceName, title, published)
	}
	id := base64.StdEncoding.EncodeToString([]byte(unique))
	if len(id) > idLength {
		id = id[:idLength]
	}
	return id
}

// StripHTML removes tags and unescapes entities
func StripHTML(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

// Summarize strips HTML and truncates to 200 characters plus "..."
func Summarize(content string) string {
	cleaned := []rune(StripHTML(content))
	if len(cleaned) <= summaryLength {
		return strings.TrimSpace(string(cleaned))
	}
	return strings.TrimSpace(string(cleaned[:summaryLength])) + "..."
}

// ReadingMinutes estimates reading time at 200 words per minute, clamped to 1..15
func ReadingMinutes(content string) int {
	words := len(strings.Fields(StripHTML(content)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return max(1, min(minutes, maxReadingMinutes))
}

// coverImage picks the first image from enclosures, media extensions, the feed image or the content
func coverImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, ext := range media[name] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, content := range []string{item.Content, item.Description} {
		if m := imgPattern.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FromFeedItem converts a parsed feed entry. It returns false for untitled entries.
func FromFeedItem(item *gofeed.Item, source Source, now time.Time) (Item, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return Item{}, false
	}

	updated := now
	switch {
	case item.PublishedParsed != nil:
		updated = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		updated = *item.UpdatedParsed
	}

	itemType := TypeArticle
	if source.Type == SourceYouTube {
		itemType = TypeVideo
	}

	return Item{
		ID:             ItemID(item.GUID, item.Link, source.Name, title, item.Published),
		Title:          title,
		Summary:        Summarize(firstNonEmpty(item.Description, item.Content)),
		Cover:          coverImage(item),
		Type:           itemType,
		Topic:          source.Category,
		ReadingMinutes: ReadingMinutes(firstNonEmpty(item.Content, item.Description)),
		UpdatedAt:      updated.UTC(),
		Source:         source.Name,
		Link:           item.Link,
	}, true
}

// MatchesKeywords reports whether the title or summary contains any keyword.
// An empty keyword list matches everything.
func MatchesKeywords(item Item, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Summary)
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
