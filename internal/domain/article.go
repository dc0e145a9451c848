package domain

// Item is a saved entry as returned by the remote read-it-later service.
type Item struct {
	ID          string
	ResolvedURL string
	GivenURL    string
	Title       string
}

// Article is the reduced (id, url) pair the pipeline works on.
type Article struct {
	ID  string
	URL string
}

// ItemState filters the saved list by read status.
type ItemState string

const (
	StateUnread  ItemState = "unread"
)

// SortOrder controls the ordering of the saved list.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
)

// GetRequest describes a retrieval call against the remote service.
type GetRequest struct {
	Count int
	State ItemState
	Sort  SortOrder
}

// GetResponse keeps items in the order the service returned them.
type GetResponse struct {
	List []Item
}

// Credentials is the API key pair for one account.
type Credentials struct {
	ConsumerKey string
	AccessToken string
}
