package collect

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"SecurityBriefing/internal/domain"
)

// A primary body shorter than this is assumed to be a teaser and the entry
// summary is preferred instead.
const minPrimaryBodyChars = 200

var (
	whitespaceExpr = regexp.MustCompile(`\s+`)
	tagExpr        = regexp.MustCompile(`<[^>]*>`)
	scriptExpr     = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)
	styleExpr      = regexp.MustCompile(`(?is)<style.*?>.*?</style>`)
)

// Normalize converts one raw feed entry into a canonical item.
// Returns nil when both title and link are blank.
func Normalize(source string, entry *gofeed.Item) *domain.Item {
	if entry == nil {
		return nil
	}

	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	if title == "" && link == "" {
		return nil
	}

	return &domain.Item{
		Source:      source,
		Title:       title,
		Link:        link,
		PublishedAt: publishedAt(entry),
		Content:     pickBody(entry.Content, entry.Description),
	}
}

func publishedAt(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed
	}
	return nil
}

// pickBody prefers the entry content when its cleaned text is substantial,
// falls back to the summary, and finally to the (possibly short) content.
func pickBody(contentHTML, summaryHTML string) string {
	c := CleanText(contentHTML)
	s := CleanText(summaryHTML)

	if utf8.RuneCountInString(c) >= minPrimaryBodyChars {
		return c
	}
	if s != "" {
		return s
	}
	return c
}

// CleanText strips script/style blocks and all remaining markup from an HTML
// fragment, collapses whitespace, and trims.
func CleanText(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	var text string
	if err != nil {
		text = tagExpr.ReplaceAllString(styleExpr.ReplaceAllString(scriptExpr.ReplaceAllString(html, " "), " "), " ")
	} else {
		doc.Find("script,style").Remove()
		text = doc.Text()
	}

	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}
