package domain

import "strings"

// ErrorFetchingTag marks an article whose tags could not be computed.
const ErrorFetchingTag = "error-fetching"

// TagOutcome is the result of tagging one article: either Tags or Err is meaningful.
type TagOutcome struct {
	ArticleID string
	Tags      []string
	Err       error
}

// Tagged builds a successful outcome.
func Tagged(articleID string, tags []string) TagOutcome {
	return TagOutcome{ArticleID: articleID, Tags: tags}
}

// Failed builds a failed outcome.
func Failed(articleID string, err error) TagOutcome {
	return TagOutcome{ArticleID: articleID, Err: err}
}

// OK reports whether tagging succeeded.
func (o TagOutcome) OK() bool {
	return o.Err == nil
}

// ActionKind is the wire name of a tag mutation.
type ActionKind string

const (
	ActionTagsReplace ActionKind = "tags_replace"
	ActionTagsClear   ActionKind = "tags_clear"
)

// TagAction is a persist instruction for a single article.
type TagAction struct {
	Kind   ActionKind
	ItemID string
	Tags   []string
}

// Clear removes every tag from an article.
func Clear(itemID string) TagAction {
	return TagAction{Kind: ActionTagsClear, ItemID: itemID}
}

// Replace overwrites the tags of an article.
func Replace(itemID string, tags ...string) TagAction {
	return TagAction{Kind: ActionTagsReplace, ItemID: itemID, Tags: tags}
}

// TagString is the comma-joined form the service expects.
func (a TagAction) TagString() string {
	return strings.Join(a.Tags, ",")
}

// Stats aggregates successful tagging results.
type Stats struct {
	URLs int `json:"urls"`
	Tags int `json:"tags"`
}
