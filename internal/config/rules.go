package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"PocketTagger/internal/domain"
)

// rulesFile mirrors the on-disk layout:
//
//	regexes:
//	  terraform: terraform
//	rules:
//	  url:     {hashicorp: [terraform]}
//	  content: {hashicorp: [terraform, consul]}
//	  html:    {non-hashicorp: [[ "!terraform", "!consul" ]]}
type rulesFile struct {
	Regexes map[string]string `yaml:"regexes"`
	Rules   struct {
		URL     map[string][]condition `yaml:"url"`
		Content map[string][]condition `yaml:"content"`
		HTML    map[string][]condition `yaml:"html"`
	} `yaml:"rules"`
}

// condition accepts either a single regex name or a list that must all hold.
type condition []string

func (c *condition) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = condition{node.Value}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*c = names
		return nil
	default:
		return errors.Errorf("line %d: condition must be a name or a list of names", node.Line)
	}
}

// LoadRuleSet reads regexes and tagging rules from a YAML file.
func LoadRuleSet(path string) (domain.RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.RuleSet{}, errors.Wrapf(err, "read rules %s", path)
	}
	return ParseRuleSet(raw)
}

// ParseRuleSet decodes a YAML rule document.
func ParseRuleSet(raw []byte) (domain.RuleSet, error) {
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.RuleSet{}, errors.Wrap(err, "parse rules")
	}

	return domain.RuleSet{
		Regexes: file.Regexes,
		URL:     toTagRules(file.Rules.URL),
		Content: toTagRules(file.Rules.Content),
		HTML:    toTagRules(file.Rules.HTML),
	}, nil
}

func toTagRules(in map[string][]condition) domain.TagRules {
	if len(in) == 0 {
		return nil
	}
	out := make(domain.TagRules, len(in))
	for tag, conds := range in {
		list := make([]domain.Condition, 0, len(conds))
		for _, c := range conds {
			list = append(list, domain.Condition(c))
		}
		out[tag] = list
	}
	return out
}
