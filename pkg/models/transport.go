package models

// URLDetectionRequest asks for detection over an image reachable by URL.
// Source is "url" (plain HTTP fetch, the default) or "azure" (blob download).
type URLDetectionRequest struct {
	URL            string `json:"url" binding:"required,url"`
	Source         string `json:"source,omitempty"`
	Task           string `json:"task,omitempty"`
	ConfidencePct  *int   `json:"confidence,omitempty"`
	DisplayRanking bool   `json:"display_ranking,omitempty"`
}

// SummaryRequest carries raw backend outputs for a batch of images
type SummaryRequest struct {
	Images  []ImageResult `json:"images" binding:"required"`
	NonZero bool          `json:"non_zero,omitempty"`
}

// SummaryResponse wraps the summaries of a batch request
type SummaryResponse struct {
	Summaries []Summary `json:"summaries"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CatalogResponse lists the category catalog in index order
type CatalogResponse struct {
	Categories []string `json:"categories"`
	Count      int      `json:"count"`
}
