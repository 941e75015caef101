package model

import (
	"slices"
	"strings"
	"unicode"
)

// Topic is a broad podcast topic category.
type Topic string

const (
	TopicHealth           Topic = "health"
	TopicMentalHealth     Topic = "mental health / psychology"
	TopicProductivity     Topic = "productivity / personal development"
	TopicFinance          Topic = "finance"
	TopicRelationships    Topic = "relationships"
	TopicEntrepreneurship Topic = "entrepreneurship / business"
	TopicReligion         Topic = "religion / spirituality"
	TopicTechnology       Topic = "technology"
	TopicEducation        Topic = "education"
	TopicLifestyle        Topic = "lifestyle"
	TopicEntertainment    Topic = "entertainment"
	TopicOther            Topic = "other"
)

// AllTopics lists every valid topic in prompt order.
var AllTopics = []Topic{
	TopicHealth,
	TopicMentalHealth,
	TopicProductivity,
	TopicFinance,
	TopicRelationships,
	TopicEntrepreneurship,
	TopicReligion,
	TopicTechnology,
	TopicEducation,
	TopicLifestyle,
	TopicEntertainment,
	TopicOther,
}

// topicLookup maps a squashed label (letters and digits only) to its topic.
// Each half of a two-part label is accepted on its own, so "psychology" and
// "mental health" both resolve to TopicMentalHealth.
var topicLookup = func() map[string]Topic {
	m := make(map[string]Topic)
	for _, t := range AllTopics {
		m[squash(string(t))] = t
		if parts := strings.Split(string(t), "/"); len(parts) > 1 {
			for _, p := range parts {
				if _, taken := m[squash(p)]; !taken {
					m[squash(p)] = t
				}
			}
		}
	}
	return m
}()

// ParseTopic resolves free text to a Topic. It reports false when the text
// does not name a known topic.
func ParseTopic(s string) (Topic, bool) {
	key := squash(s)
	if key == "" {
		return TopicOther, false
	}
	t, ok := topicLookup[key]
	if !ok {
		return TopicOther, false
	}
	return t, true
}

// IsValid reports whether t is one of AllTopics.
func (t Topic) IsValid() bool {
	return slices.Contains(AllTopics, t)
}

// OrOther returns t, or TopicOther when t is empty or unknown.
func (t Topic) OrOther() Topic {
	if t.IsValid() {
		return t
	}
	return TopicOther
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
