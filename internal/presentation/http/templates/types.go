package templates

// SiteTitle is shown in the navigation bar and page titles.
const SiteTitle = "Guka"

// PassageCardView is one entry of the search results list.
type PassageCardView struct {
	URL           string
	Year          int
	ExamLabel     string
	CategoryLabel string
	Subject       string
	Preview       string
}

// HomePageData contains dynamic values rendered on the landing page.
type HomePageData struct {
	PassageCount int64
}

// SearchPageData bundles template data for the search results page.
type SearchPageData struct {
	Query   string
	Results []PassageCardView
}

// PassagePageData holds the detail view of a single passage.
type PassagePageData struct {
	Year          int
	ExamLabel     string
	CategoryLabel string
	Number        int
	Subject       string
	Content       string
	HasContent    bool
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	StatusLabel string
	Message     string
}
