// internal/domain/models/page.go
package models

import (
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
)

// Page is an editable content page of the site, including its SEO metadata.
// Pages live in the "pages" collection; the stored documents are schemaless,
// so NormalizePage fills every field the editor expects with its default.
type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
	SEO     SEO    `json:"seo"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// SEO holds per-page search and social metadata.
type SEO struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Keywords     []string  `json:"keywords"`
	CanonicalURL string    `json:"canonicalUrl"`
	RedirectURL  string    `json:"redirectUrl"`
	Robots       SEORobots `json:"robots"`
	Schema       string    `json:"schema"`
	Social       SEOSocial `json:"social"`
}

// SEORobots mirrors the robots meta directives. All flags default to false.
type SEORobots struct {
	NoIndex      bool `json:"noindex"`
	NoFollow     bool `json:"nofollow"`
	NoArchive    bool `json:"noarchive"`
	NoSnippet    bool `json:"nosnippet"`
	NoImageIndex bool `json:"noimageindex"`
	NoTranslate  bool `json:"notranslate"`
}

// SEOSocial holds Open Graph and Twitter card fields.
type SEOSocial struct {
	OGTitle            string `json:"ogTitle"`
	OGDescription      string `json:"ogDescription"`
	OGImage            string `json:"ogImage"`
	TwitterCard        string `json:"twitterCard"`
	TwitterTitle       string `json:"twitterTitle"`
	TwitterDescription string `json:"twitterDescription"`
	TwitterImage       string `json:"twitterImage"`
}

// Page defaults applied during normalization.
const (
	DefaultPageTitle   = "Untitled Page"
	DefaultPageType    = "page"
	DefaultTwitterCard = "summary"
)

// NewRecordID is the id the admin UI uses for a record that is being created
// and has not been saved yet. Stores skip fetching it entirely.
const NewRecordID = "new"

// NormalizePage produces a fully-populated Page from a raw stored document.
// Stored values win field-by-field inside nested objects; anything absent
// gets its default, so no field of the result is ever missing. Normalizing
// an already-normalized page changes nothing.
func NormalizePage(doc docstore.Document) Page {
	seo := docMap(doc, "seo")
	robots := docMap(seo, "robots")
	social := docMap(seo, "social")

	return Page{
		ID:      doc.ID(),
		Title:   docString(doc, "title", DefaultPageTitle),
		Content: docString(doc, "content", ""),
		Type:    docString(doc, "type", DefaultPageType),
		SEO: SEO{
			Title:        subString(seo, "title", ""),
			Description:  subString(seo, "description", ""),
			Keywords:     subStrings(seo, "keywords"),
			CanonicalURL: subString(seo, "canonicalUrl", ""),
			RedirectURL:  subString(seo, "redirectUrl", ""),
			Robots: SEORobots{
				NoIndex:      subBool(robots, "noindex"),
				NoFollow:     subBool(robots, "nofollow"),
				NoArchive:    subBool(robots, "noarchive"),
				NoSnippet:    subBool(robots, "nosnippet"),
				NoImageIndex: subBool(robots, "noimageindex"),
				NoTranslate:  subBool(robots, "notranslate"),
			},
			Schema: subString(seo, "schema", ""),
			Social: SEOSocial{
				OGTitle:            subString(social, "ogTitle", ""),
				OGDescription:      subString(social, "ogDescription", ""),
				OGImage:            subString(social, "ogImage", ""),
				TwitterCard:        subString(social, "twitterCard", DefaultTwitterCard),
				TwitterTitle:       subString(social, "twitterTitle", ""),
				TwitterDescription: subString(social, "twitterDescription", ""),
				TwitterImage:       subString(social, "twitterImage", ""),
			},
		},
		CreatedAt: docTime(doc, docstore.FieldCreatedAt),
		UpdatedAt: docTime(doc, docstore.FieldUpdatedAt),
	}
}

// Document renders the page for the gateway write path. The id and the
// gateway-owned timestamps are not included.
func (p Page) Document() docstore.Document {
	return docstore.Document{
		"title":   p.Title,
		"content": p.Content,
		"type":    p.Type,
		"seo": docstore.Document{
			"title":        p.SEO.Title,
			"description":  p.SEO.Description,
			"keywords":     p.SEO.Keywords,
			"canonicalUrl": p.SEO.CanonicalURL,
			"redirectUrl":  p.SEO.RedirectURL,
			"robots": docstore.Document{
				"noindex":      p.SEO.Robots.NoIndex,
				"nofollow":     p.SEO.Robots.NoFollow,
				"noarchive":    p.SEO.Robots.NoArchive,
				"nosnippet":    p.SEO.Robots.NoSnippet,
				"noimageindex": p.SEO.Robots.NoImageIndex,
				"notranslate":  p.SEO.Robots.NoTranslate,
			},
			"schema": p.SEO.Schema,
			"social": docstore.Document{
				"ogTitle":            p.SEO.Social.OGTitle,
				"ogDescription":      p.SEO.Social.OGDescription,
				"ogImage":            p.SEO.Social.OGImage,
				"twitterCard":        p.SEO.Social.TwitterCard,
				"twitterTitle":       p.SEO.Social.TwitterTitle,
				"twitterDescription": p.SEO.Social.TwitterDescription,
				"twitterImage":       p.SEO.Social.TwitterImage,
			},
		},
	}
}
