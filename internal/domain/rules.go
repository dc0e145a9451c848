package domain

// Condition is a conjunction of regex names; a name prefixed with "!" must not match.
type Condition []string

// TagRules maps a tag to alternative conditions; any satisfied condition applies the tag.
type TagRules map[string][]Condition

// RuleSet holds the named regexes and the rules evaluated against each input.
type RuleSet struct {
	Regexes map[string]string
	URL     TagRules
	Content TagRules
	HTML    TagRules
}

// NeedsPage reports whether evaluating the rules requires downloading the article.
func (r RuleSet) NeedsPage() bool {
	return len(r.Content) > 0 || len(r.HTML) > 0
}
