// Package classify assigns a coarse semantic category to extracted units.
//
// Classification is a pure function of (path, name, receiver): the rule
// list is fixed at construction and evaluated top to bottom, so the same
// unit always yields the same category across runs.
package classify

import (
	"strings"

	"github.com/DreamCats/fnindex/internal/config"
)

// Category is the coarse semantic role of a unit.
type Category string

const (
	CategoryHandler    Category = "handler"
	CategoryMiddleware Category = "middleware"
	CategoryService    Category = "service"
	CategoryRepository Category = "repository"
	CategoryModel      Category = "model"
	CategoryUtility    Category = "utility"
	CategoryClient     Category = "client"
	CategoryOther      Category = "other"
)

// Categories lists every category the classifier can return.
func Categories() []Category {
	return []Category{
		CategoryHandler, CategoryMiddleware, CategoryService, CategoryRepository,
		CategoryModel, CategoryUtility, CategoryClient, CategoryOther,
	}
}

// Rule pairs a predicate with the category it assigns.
type Rule struct {
	Match    func(path, name, receiver string) bool
	Category Category
}

// Classifier evaluates an ordered rule list.
type Classifier struct {
	rules []Rule
}

// New creates a classifier. Keyword lists from cfg override the defaults;
// a zero-value cfg yields the built-in rules.
func New(cfg config.ClassifyConfig) *Classifier {
	pathRules := defaultPathRules()
	if len(cfg.PathRules) > 0 {
		pathRules = configuredPathRules(cfg.PathRules)
	}
	nameRules := defaultNameRules()
	if len(cfg.NameRules) > 0 {
		nameRules = configuredNameRules(cfg.NameRules)
	}

	// Path rules outrank name rules; the catch-all comes last.
	rules := append(pathRules, nameRules...)
	rules = append(rules, Rule{
		Match:    func(string, string, string) bool { return true },
		Category: CategoryOther,
	})
	return &Classifier{rules: rules}
}

// Classify returns the category for a unit. It never returns an empty
// category: the final rule matches everything.
func (c *Classifier) Classify(path, name, receiver string) Category {
	for _, rule := range c.rules {
		if rule.Match(path, name, receiver) {
			return rule.Category
		}
	}
	return CategoryOther
}

// pathContains matches when the lowercase relative path contains keyword.
func pathContains(keyword string, category Category) Rule {
	return Rule{
		Match: func(path, _, _ string) bool {
			return strings.Contains(strings.ToLower(path), keyword)
		},
		Category: category,
	}
}

// nameOrReceiverSuffix matches when the unit name or its receiver type
// ends with the given suffix.
func nameOrReceiverSuffix(suffix string, category Category) Rule {
	return Rule{
		Match: func(_, name, receiver string) bool {
			return strings.HasSuffix(name, suffix) || strings.HasSuffix(receiver, suffix)
		},
		Category: category,
	}
}

func defaultPathRules() []Rule {
	return []Rule{
		pathContains("handler", CategoryHandler),
		pathContains("middleware", CategoryMiddleware),
		pathContains("service", CategoryService),
		pathContains("repositor", CategoryRepository),
		pathContains("repo", CategoryRepository),
		pathContains("model", CategoryModel),
		pathContains("entity", CategoryModel),
		pathContains("client", CategoryClient),
		pathContains("util", CategoryUtility),
		pathContains("helper", CategoryUtility),
	}
}

func defaultNameRules() []Rule {
	return []Rule{
		nameOrReceiverSuffix("Handler", CategoryHandler),
		nameOrReceiverSuffix("Middleware", CategoryMiddleware),
		nameOrReceiverSuffix("Service", CategoryService),
		nameOrReceiverSuffix("Repository", CategoryRepository),
		nameOrReceiverSuffix("Repo", CategoryRepository),
		nameOrReceiverSuffix("Model", CategoryModel),
		nameOrReceiverSuffix("Client", CategoryClient),
	}
}

func configuredPathRules(rules []config.KeywordRule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, pathContains(strings.ToLower(r.Keyword), Category(r.Category)))
	}
	return out
}

func configuredNameRules(rules []config.KeywordRule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, nameOrReceiverSuffix(r.Keyword, Category(r.Category)))
	}
	return out
}
