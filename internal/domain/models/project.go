// internal/domain/models/project.go
package models

import (
	"regexp"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
)

// Project is a portfolio entry shown on the site. Like pages, projects are
// stored schemaless and normalized on the way out.
type Project struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Image          string         `json:"image"`
	ImageURL       string         `json:"imageUrl"`
	CompletionDate string         `json:"completionDate"`
	Highlights     []string       `json:"highlights"`
	Type           string         `json:"type"`
	Details        string         `json:"details"`
	TableOnly      bool           `json:"tableOnly"`
	Specifications Specifications `json:"specifications"`
	ProjectDetails ProjectDetails `json:"projectDetails"`
	Gallery        []GalleryImage `json:"gallery"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Specifications describes the practical facts of a project.
type Specifications struct {
	Duration  string   `json:"duration"`
	Location  string   `json:"location"`
	Services  []string `json:"services"`
	Materials []string `json:"materials"`
}

// ProjectDetails is the narrative section of a project page.
type ProjectDetails struct {
	Challenge string `json:"challenge"`
	Solution  string `json:"solution"`
	Outcome   string `json:"outcome"`
}

// GalleryImage is one entry in a project's image gallery.
type GalleryImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Project defaults applied during normalization.
const (
	DefaultProjectTitle    = "Untitled Project"
	DefaultProjectCategory = "Residential"
	DefaultProjectType     = "Unknown"
)

// completionDatePattern is a shape check only. A string like "2024-02-30"
// passes; anything else is replaced with today's date.
var completionDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeProject produces a fully-populated Project from a raw stored
// document, using now for the completion-date fallback so callers (and
// tests) control the clock. The main image URL falls back to the legacy
// image field when imageUrl is absent.
func NormalizeProject(doc docstore.Document, now time.Time) Project {
	specs := docMap(doc, "specifications")
	details := docMap(doc, "projectDetails")

	image := docString(doc, "image", "")
	imageURL := docString(doc, "imageUrl", "")
	if imageURL == "" {
		imageURL = image
	}

	completionDate := docString(doc, "completionDate", "")
	if !completionDatePattern.MatchString(completionDate) {
		completionDate = now.Format("2006-01-02")
	}

	return Project{
		ID:             doc.ID(),
		Title:          docString(doc, "title", DefaultProjectTitle),
		Description:    docString(doc, "description", ""),
		Category:       docString(doc, "category", DefaultProjectCategory),
		Image:          image,
		ImageURL:       imageURL,
		CompletionDate: completionDate,
		Highlights:     docStrings(doc, "highlights"),
		Type:           docString(doc, "type", DefaultProjectType),
		Details:        docString(doc, "details", ""),
		TableOnly:      docBool(doc, "tableOnly"),
		Specifications: Specifications{
			Duration:  subString(specs, "duration", ""),
			Location:  subString(specs, "location", ""),
			Services:  subStrings(specs, "services"),
			Materials: subStrings(specs, "materials"),
		},
		ProjectDetails: ProjectDetails{
			Challenge: subString(details, "challenge", ""),
			Solution:  subString(details, "solution", ""),
			Outcome:   subString(details, "outcome", ""),
		},
		Gallery:   galleryImages(doc, "gallery"),
		CreatedAt: docTime(doc, docstore.FieldCreatedAt),
		UpdatedAt: docTime(doc, docstore.FieldUpdatedAt),
	}
}

// galleryImages reads an array of {url, caption} objects. Entries that are
// not objects, or that have no url, are dropped.
func galleryImages(doc docstore.Document, key string) []GalleryImage {
	out := []GalleryImage{}
	items, _ := asSlice(doc[key])
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		img := GalleryImage{
			URL:     subString(m, "url", ""),
			Caption: subString(m, "caption", ""),
		}
		if img.URL == "" {
			continue
		}
		out = append(out, img)
	}
	return out
}

// Document renders the project for the gateway write path.
func (p Project) Document() docstore.Document {
	gallery := make([]docstore.Document, 0, len(p.Gallery))
	for _, img := range p.Gallery {
		gallery = append(gallery, docstore.Document{
			"url":     img.URL,
			"caption": img.Caption,
		})
	}

	return docstore.Document{
		"title":          p.Title,
		"description":    p.Description,
		"category":       p.Category,
		"image":          p.Image,
		"imageUrl":       p.ImageURL,
		"completionDate": p.CompletionDate,
		"highlights":     p.Highlights,
		"type":           p.Type,
		"details":        p.Details,
		"tableOnly":      p.TableOnly,
		"specifications": docstore.Document{
			"duration":  p.Specifications.Duration,
			"location":  p.Specifications.Location,
			"services":  p.Specifications.Services,
			"materials": p.Specifications.Materials,
		},
		"projectDetails": docstore.Document{
			"challenge": p.ProjectDetails.Challenge,
			"solution":  p.ProjectDetails.Solution,
			"outcome":   p.ProjectDetails.Outcome,
		},
		"gallery": gallery,
	}
}
