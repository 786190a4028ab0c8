// Package cms is a read-only client for a ButterCMS-compatible blog API.
package cms

import "time"

// Post is a blog post as returned by the CMS. The CMS owns these records;
// this package only reads them.
type Post struct {
	Slug             string     `json:"slug"`
	URL              string     `json:"url"`
	Status           string     `json:"status"`
	Published        time.Time  `json:"published"`
	Updated          time.Time  `json:"updated"`
	Created          time.Time  `json:"created"`
	Title            string     `json:"title"`
	Summary          string     `json:"summary"`
	Body             string     `json:"body"`
	SEOTitle         string     `json:"seo_title"`
	MetaDescription  string     `json:"meta_description"`
	FeaturedImage    string     `json:"featured_image"`
	FeaturedImageAlt string     `json:"featured_image_alt"`
	Author           Author     `json:"author"`
	Tags             []Tag      `json:"tags"`
	Categories       []Category `json:"categories"`
}

// Author is the post author embedded in every post.
type Author struct {
	Slug      string `json:"slug"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Email     string `json:"email"`
	Image     string `json:"profile_image"`
}

// Name returns "First Last", or whichever half is present.
func (a Author) Name() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Tag is a free-form post label.
type Tag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Category groups posts.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostRef is the short form used for next/previous links.
type PostRef struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	FeaturedImage string `json:"featured_image"`
}

// ListMeta carries pagination info for a post list. NextPage and
// PreviousPage are zero when there is no such page.
type ListMeta struct {
	Count        int `json:"count"`
	NextPage     int `json:"next_page"`
	PreviousPage int `json:"previous_page"`
}

// PostList is the envelope of GET /posts/.
type PostList struct {
	Meta ListMeta `json:"meta"`
	Data []Post   `json:"data"`
}

// PostMeta links a post to its neighbours.
type PostMeta struct {
	NextPost     *PostRef `json:"next_post"`
	PreviousPost *PostRef `json:"previous_post"`
}

// PostResponse is the envelope of GET /posts/<slug>/.
type PostResponse struct {
	Meta PostMeta `json:"meta"`
	Data Post     `json:"data"`
}

// ListOptions selects a page of posts.
type ListOptions struct {
	Page         int    `validate:"min=1"`
	PageSize     int    `validate:"min=1,max=100"`
	TagSlug      string `validate:"max=256"`
	CategorySlug string `validate:"max=256"`
	AuthorSlug   string `validate:"max=256"`
	ExcludeBody  bool
	Preview      bool
}

// GetOptions tunes a single post lookup.
type GetOptions struct {
	Preview bool
}
