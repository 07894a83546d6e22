package dspace

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const (
	itemViewID          = "aspect_artifactbrowser_ItemViewer_div_item-view"
	metadataCommentMark = "External Metadata URL:"
	trailID             = "ds-trail"
)

// Listing is one page of a community or collection listing.
type Listing struct {
	RecordURLs []string
	// NextPage is the absolute URL of the following page, or "".
	NextPage string
}

// RecordPage is what the crawler needs from an item page.
type RecordPage struct {
	MetadataURL string
	Breadcrumb  []string
}

// ParseListing reads record links (div.artifact-description a) and the
// pagination link (a.next-page-link) from a listing page.
func ParseListing(pageURL *url.URL, body io.Reader) (Listing, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}

	var listing Listing
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "div" && hasClass(n, "artifact-description"):
				if a := findFirst(n, func(c *html.Node) bool {
					return c.Type == html.ElementNode && c.Data == "a" && attr(c, "href") != ""
				}); a != nil {
					if u, ok := resolve(pageURL, attr(a, "href")); ok {
						listing.RecordURLs = append(listing.RecordURLs, u)
					}
				}
				return
			case n.Data == "a" && hasClass(n, "next-page-link") && listing.NextPage == "":
				if u, ok := resolve(pageURL, attr(n, "href")); ok {
					listing.NextPage = u
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return listing, nil
}

// ParseRecordPage finds the METS metadata URL and the breadcrumb trail on an
// item page. DSpace XMLUI only exposes the metadata location in an HTML
// comment of the form
//
//	<!-- External Metadata URL: cocoon://metadata/handle/<id>/<id>/mets.xml-->
//
// which maps to <scheme>://<host>/xmlui/metadata/handle/<id>/<id>/mets.xml.
func ParseRecordPage(pageURL *url.URL, body io.Reader) (RecordPage, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return RecordPage{}, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}

	var page RecordPage

	scope := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == itemViewID
	})
	if scope == nil {
		scope = doc
	}
	comment := findFirst(scope, func(n *html.Node) bool {
		return n.Type == html.CommentNode && strings.Contains(n.Data, metadataCommentMark)
	})
	if comment == nil {
		return page, fmt.Errorf("no metadata URL found on %s", pageURL)
	}
	page.MetadataURL = metadataURL(pageURL, comment.Data)

	if trail := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "ul" && attr(n, "id") == trailID
	}); trail != nil {
		for li := trail.FirstChild; li != nil; li = li.NextSibling {
			if li.Type != html.ElementNode || li.Data != "li" {
				continue
			}
			if text := strings.Join(strings.Fields(extractText(li)), " "); text != "" {
				page.Breadcrumb = append(page.Breadcrumb, text)
			}
		}
	}

	return page, nil
}

func metadataURL(pageURL *url.URL, comment string) string {
	path := comment[strings.Index(comment, metadataCommentMark)+len(metadataCommentMark):]
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "cocoon://")
	path = strings.TrimPrefix(path, "/")
	return pageURL.Scheme + "://" + pageURL.Host + "/xmlui/" + path
}

// resolve turns href into an absolute URL relative to base.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(extractText(c))
	}
	return sb.String()
}
