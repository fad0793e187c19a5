package domain

// Listing is one page of the store listing. FallbackPage is set when the
// requested page was out of range and Page was served instead.
type Listing struct {
	Stores        []Store `json:"stores"`
	Count         int     `json:"count"`
	PageCount     int     `json:"page_count"`
	Page          int     `json:"page"`
	RequestedPage int     `json:"requested_page"`
	FallbackPage  *int    `json:"fallback_page,omitempty"`
}

// TagView is the tag facet plus the stores matching the selected tag.
type TagView struct {
	Tags        []TagCount `json:"tags"`
	SelectedTag *string    `json:"selected_tag"`
	Stores      []Store    `json:"stores"`
}

// HeartResult is the hearts set after a toggle.
type HeartResult struct {
	Hearts  []string `json:"hearts"`
	Hearted bool     `json:"hearted"`
}

// StoreDetail is a store with its reviews.
type StoreDetail struct {
	Store
	Author  *Author  `json:"author_detail,omitempty"`
	Reviews []Review `json:"reviews"`
}
