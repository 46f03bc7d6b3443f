package workflow

import "math/rand"

// Topics is the fixed catalog random topics are drawn from.
var Topics = []string{
	"How we divide household chores and whether it feels fair to both of us.",
	"How much time we spend with each other's families during the holidays.",
	"Our different approaches to saving and spending money.",
	"How we each like to unwind after a stressful day.",
	"What quality time together looks like to each of us.",
	"How we handle disagreements in front of friends or family.",
	"Whether we want to move to a new city in the next few years.",
	"How we balance time with friends and time as a couple.",
	"How we share the mental load of planning and remembering things.",
	"What we each need when the other is feeling down.",
	"How we use our phones when we are together.",
	"Our expectations for birthdays, anniversaries and gift-giving.",
	"How we make big purchasing decisions together.",
	"How we support each other's career goals.",
	"How affection and physical touch show up in our relationship.",
	"What we want our weekends to look like.",
	"How we talk about and plan for having children, or not.",
	"How we each feel about the way we resolved our last argument.",
	"How we keep things fresh and fun in our routine.",
	"What trust means to each of us and how we build it.",
}

// Catalog draws topics uniformly at random from a fixed list.
type Catalog struct {
	topics []string
	rnd    *rand.Rand
}

// NewCatalog returns a catalog over topics. A nil rnd uses the global
// source.
func NewCatalog(topics []string, rnd *rand.Rand) *Catalog {
	return &Catalog{topics: topics, rnd: rnd}
}

// DefaultCatalog draws from Topics using the global random source.
func DefaultCatalog() *Catalog {
	return NewCatalog(Topics, nil)
}

// Random returns one topic. An empty catalog yields "".
func (c *Catalog) Random() string {
	if len(c.topics) == 0 {
		return ""
	}
	if c.rnd != nil {
		return c.topics[c.rnd.Intn(len(c.topics))]
	}
	return c.topics[rand.Intn(len(c.topics))]
}

// All returns a copy of the catalog entries.
func (c *Catalog) All() []string {
	out := make([]string, len(c.topics))
	copy(out, c.topics)
	return out
}

// Contains reports whether topic is a catalog entry.
func (c *Catalog) Contains(topic string) bool {
	for _, t := range c.topics {
		if t == topic {
			return true
		}
	}
	return false
}
