package model

import (
	"sort"
	"time"
)

// Profile is the portfolio owner's public introduction.
type Profile struct {
	ID         string    `json:"-" bson:"-"`
	Name       string    `json:"name" bson:"name"`
	NameEn     string    `json:"nameEn" bson:"nameEn"`
	Title      string    `json:"title" bson:"title"`
	Bio        []string  `json:"bio" bson:"bio"`
	Philosophy string    `json:"philosophy" bson:"philosophy"`
	Photo      string    `json:"photo,omitempty" bson:"photo,omitempty"`
	IsActive   bool      `json:"-" bson:"isActive"`
	CreatedAt  time.Time `json:"-" bson:"createdAt"`
	UpdatedAt  time.Time `json:"-" bson:"updatedAt"`
}

// ProjectImage is one entry of a project's gallery.
type ProjectImage struct {
	Layout   string `json:"layout" bson:"layout"` // "full" or "half"
	Gradient string `json:"gradient" bson:"gradient"`
	Label    string `json:"label" bson:"label"`
	Caption  string `json:"caption,omitempty" bson:"caption,omitempty"`
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
	Order    int    `json:"order" bson:"order"`
}

// ProjectResult is a headline metric shown on a project page.
type ProjectResult struct {
	Value string `json:"value" bson:"value"`
	Label string `json:"label" bson:"label"`
	Order int    `json:"order" bson:"order"`
}

// Project is a portfolio work item. ProjectID is the URL-friendly public
// identifier; ID is the store's own key.
type Project struct {
	ID              string          `json:"_id" bson:"-"`
	ProjectID       string          `json:"projectId" bson:"projectId"`
	Title           string          `json:"title" bson:"title"`
	Category        string          `json:"category" bson:"category"`
	Year            string          `json:"year" bson:"year"`
	Description     string          `json:"description" bson:"description"`
	Tags            []string        `json:"tags" bson:"tags"`
	Color           string          `json:"color" bson:"color"`
	CoverImage      string          `json:"coverImage" bson:"coverImage"`
	CoverGradient   string          `json:"coverGradient" bson:"coverGradient"`
	Overview        string          `json:"overview" bson:"overview"`
	Client          string          `json:"client" bson:"client"`
	Duration        string          `json:"duration" bson:"duration"`
	Role            string          `json:"role" bson:"role"`
	Tools           string          `json:"tools" bson:"tools"`
	Challenge       string          `json:"challenge" bson:"challenge"`
	Solution        string          `json:"solution" bson:"solution"`
	Images          []ProjectImage  `json:"images" bson:"images"`
	Results         []ProjectResult `json:"results" bson:"results"`
	ShowResults     bool            `json:"showResults" bson:"showResults"`
	Published       bool            `json:"published" bson:"published"`
	Featured        bool            `json:"featured" bson:"featured"`
	Order           int             `json:"order" bson:"order"`
	Slug            string          `json:"slug" bson:"slug"`
	MetaDescription string          `json:"metaDescription,omitempty" bson:"metaDescription,omitempty"`
	MetaKeywords    []string        `json:"metaKeywords" bson:"metaKeywords"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// ProjectCard is the list representation of a published project.
type ProjectCard struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Year        string   `json:"year"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Color       string   `json:"color"`
}

// PublicImage is a gallery image without its sort key.
type PublicImage struct {
	Layout   string `json:"layout"`
	Gradient string `json:"gradient"`
	Label    string `json:"label"`
	Caption  string `json:"caption,omitempty"`
	URL      string `json:"url,omitempty"`
}

// PublicResult is a project metric without its sort key.
type PublicResult struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ProjectDetail is the public detail page of a published project.
type ProjectDetail struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Category      string         `json:"category"`
	Year          string         `json:"year"`
	Description   string         `json:"description"`
	Tags          []string       `json:"tags"`
	CoverImage    string         `json:"coverImage,omitempty"`
	CoverGradient string         `json:"coverGradient"`
	Overview      string         `json:"overview"`
	Client        string         `json:"client"`
	Duration      string         `json:"duration"`
	Role          string         `json:"role"`
	Tools         string         `json:"tools"`
	Challenge     string         `json:"challenge"`
	Solution      string         `json:"solution"`
	Images        []PublicImage  `json:"images"`
	Results       []PublicResult `json:"results"`
}

// Card returns the list representation of p.
func (p *Project) Card() ProjectCard {
	return ProjectCard{
		ID:          p.ProjectID,
		Title:       p.Title,
		Category:    p.Category,
		Year:        p.Year,
		Description: p.Description,
		Tags:        nonNilStrings(p.Tags),
		Color:       p.Color,
	}
}

// Detail returns the public detail representation of p. Images and results
// are emitted in their stored order; results are omitted when ShowResults is
// off.
func (p *Project) Detail() ProjectDetail {
	images := make([]ProjectImage, len(p.Images))
	copy(images, p.Images)
	sort.SliceStable(images, func(i, j int) bool { return images[i].Order < images[j].Order })

	d := ProjectDetail{
		ID:            p.ProjectID,
		Title:         p.Title,
		Category:      p.Category,
		Year:          p.Year,
		Description:   p.Description,
		Tags:          nonNilStrings(p.Tags),
		CoverImage:    p.CoverImage,
		CoverGradient: p.CoverGradient,
		Overview:      p.Overview,
		Client:        p.Client,
		Duration:      p.Duration,
		Role:          p.Role,
		Tools:         p.Tools,
		Challenge:     p.Challenge,
		Solution:      p.Solution,
		Images:        make([]PublicImage, 0, len(images)),
		Results:       []PublicResult{},
	}
	for _, img := range images {
		d.Images = append(d.Images, PublicImage{
			Layout:   img.Layout,
			Gradient: img.Gradient,
			Label:    img.Label,
			Caption:  img.Caption,
			URL:      img.URL,
		})
	}
	if p.ShowResults {
		results := make([]ProjectResult, len(p.Results))
		copy(results, p.Results)
		sort.SliceStable(results, func(i, j int) bool { return results[i].Order < results[j].Order })
		for _, r := range results {
			d.Results = append(d.Results, PublicResult{Value: r.Value, Label: r.Label})
		}
	}
	return d
}

// SkillCategory groups related skills under a heading.
type SkillCategory struct {
	ID         string    `json:"-" bson:"-"`
	CategoryID string    `json:"id" bson:"categoryId"`
	Title      string    `json:"title" bson:"title"`
	Skills     []string  `json:"skills" bson:"skills"`
	Order      int       `json:"-" bson:"order"`
	IsVisible  bool      `json:"-" bson:"isVisible"`
	CreatedAt  time.Time `json:"-" bson:"createdAt"`
	UpdatedAt  time.Time `json:"-" bson:"updatedAt"`
}

// ContactLink is one way to reach the portfolio owner.
type ContactLink struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
	URL   string `json:"url" bson:"url"`
	Icon  string `json:"icon,omitempty" bson:"icon,omitempty"`
	Order int    `json:"order" bson:"order"`
}

// Contact is the contact section. Usually a single active document exists.
type Contact struct {
	ID        string        `json:"-" bson:"-"`
	Text      string        `json:"text" bson:"text"`
	Links     []ContactLink `json:"links" bson:"links"`
	IsActive  bool          `json:"-" bson:"isActive"`
	CreatedAt time.Time     `json:"-" bson:"createdAt"`
	UpdatedAt time.Time     `json:"-" bson:"updatedAt"`
}

// PublicContactLink is a contact link without sort key or icon.
type PublicContactLink struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
	URL   string `json:"url"`
}

// PublicContact is the public representation of Contact.
type PublicContact struct {
	Text  string              `json:"text"`
	Links []PublicContactLink `json:"links"`
}

// Public returns c with links sorted by order.
func (c *Contact) Public() PublicContact {
	links := make([]ContactLink, len(c.Links))
	copy(links, c.Links)
	sort.SliceStable(links, func(i, j int) bool { return links[i].Order < links[j].Order })

	out := PublicContact{Text: c.Text, Links: make([]PublicContactLink, 0, len(links))}
	for _, l := range links {
		out.Links = append(out.Links, PublicContactLink{ID: l.ID, Label: l.Label, Value: l.Value, URL: l.URL})
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
