package feed

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/jlin-dev/feedstream/models"
	"github.com/jlin-dev/feedstream/utils"
)

const descriptionSnippetMaxLen = 280

// Normalize maps one parsed entry onto the canonical FeedItem shape. The
// second return value is false when the entry carries no usable identity
// (no guid, no id, no link); such entries are skipped, never reported as
// errors. now supplies the publication date for entries that lack one.
//
// Normalize is deterministic: the same entry always yields the same item,
// up to the injected now.
func Normalize(feedID uint, item *gofeed.Item, now time.Time) (models.FeedItem, bool) {
	guid := strings.TrimSpace(item.GUID)
	if guid == "" {
		guid = strings.TrimSpace(item.Link)
	}
	if guid == "" {
		log.Printf("Skipping entry without guid or link (feed %d, title %q)", feedID, item.Title)
		return models.FeedItem{}, false
	}

	pubDate := now
	if item.PublishedParsed != nil {
		pubDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		pubDate = *item.UpdatedParsed
	}

	description := item.Description
	if description == "" && item.Content != "" {
		description = utils.Truncate(utils.Sanitize(item.Content), descriptionSnippetMaxLen)
	}

	categories := item.Categories
	if categories == nil {
		categories = []string{}
	}

	return models.FeedItem{
		FeedID:      feedID,
		GUID:        guid,
		Title:       item.Title,
		Link:        item.Link,
		Description: description,
		Content:     item.Content,
		PubDate:     pubDate,
		ImageURL:    selectImage(item),
		Categories:  categories,
	}, true
}

type imageCandidate struct {
	url   string
	width int
}

// selectImage picks the representative image for an entry. Candidates are
// considered in a fixed order: media:content elements, then the content
// children of each media:group, then media:thumbnail elements. The candidate
// with the largest declared width wins; a missing or unparseable width counts
// as zero and ties keep the earlier candidate. When no media descriptor
// carries a URL the entry's HTML body is scanned for its first <img> tag.
func selectImage(item *gofeed.Item) *string {
	media := item.Extensions["media"]

	var candidates []imageCandidate
	candidates = appendCandidates(candidates, media["content"])
	for _, group := range media["group"] {
		candidates = appendCandidates(candidates, group.Children["content"])
	}
	candidates = appendCandidates(candidates, media["thumbnail"])

	if len(candidates) > 0 {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.width > best.width {
				best = c
			}
		}
		return &best.url
	}

	if src := firstImgSrc(item.Content); src != "" {
		return &src
	}
	if src := firstImgSrc(item.Description); src != "" {
		return &src
	}
	return nil
}

func appendCandidates(candidates []imageCandidate, descriptors []ext.Extension) []imageCandidate {
	for _, d := range descriptors {
		url := strings.TrimSpace(d.Attrs["url"])
		if url == "" {
			continue
		}
		width, err := strconv.Atoi(strings.TrimSpace(d.Attrs["width"]))
		if err != nil || width < 0 {
			width = 0
		}
		candidates = append(candidates, imageCandidate{url: url, width: width})
	}
	return candidates
}

func firstImgSrc(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}
