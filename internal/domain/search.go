package domain

import "strings"

const (
	// DefaultPageSize bounds every search to a handful of results.
	DefaultPageSize = 5
	// AnonUserPseudoID is the pseudo id sent when no session or configured
	// default is available.
	AnonUserPseudoID = "anon"
	// DefaultCollection is the fixed collection name the backend expects.
	DefaultCollection = "default_collection"
)

// SearchQuery is a bounded, safety-filtered search request.
type SearchQuery struct {
	Text         string
	UserPseudoID string
	PageSize     int
	SafeSearch   bool
}

// NewSearchQuery builds a search query with the fixed page size and safety
// filter. Text is trimmed; an empty userPseudoID falls back to "anon".
func NewSearchQuery(text, userPseudoID string) SearchQuery {
	if userPseudoID == "" {
		userPseudoID = AnonUserPseudoID
	}
	return SearchQuery{
		Text:         strings.TrimSpace(text),
		UserPseudoID: userPseudoID,
		PageSize:     DefaultPageSize,
		SafeSearch:   true,
	}
}

// RawResult is one backend search record before normalization. Field presence
// varies across backend versions; every Metadata key is optional.
type RawResult struct {
	ID       string
	URI      string
	Metadata map[string]any
}

// DataStore is one listed backend document collection.
type DataStore struct {
	ID          string
	DisplayName string
}
