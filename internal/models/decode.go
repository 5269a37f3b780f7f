package models

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Rows come straight from the database and the classifier writes loosely
// shaped JSON. Decoding never fails on a malformed field: the field is left
// at its zero value and the rest of the row is kept.

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON decodes a feed row, treating malformed fields as absent
func (f *FeedItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = FeedItem{
		ID:           rawString(raw["id"]),
		ActivationID: rawString(raw["activation_id"]),
		Title:        rawString(raw["title"]),
		Summary:      rawString(raw["summary"]),
		SourceName:   rawString(raw["source_name"]),
		SourceType:   strings.ToLower(rawString(raw["source_type"])),
		Sentiment:    Sentiment(rawString(raw["sentiment"])),
		Keywords:     rawStrings(raw["keywords"]),
		Status:       rawString(raw["status"]),
		URL:          rawString(raw["url"]),
		CreatedAt:    rawTime(raw["created_at"]),
	}
	if f.SourceName == "" {
		f.SourceName = rawString(raw["source"])
	}
	if score, ok := rawInt(raw["risk_score"]); ok {
		f.RiskScore = clampRisk(score)
	}

	meta, ok := raw["classification_metadata"]
	if !ok {
		meta = raw["metadata"]
	}
	f.Classification = decodeClassification(meta)

	return nil
}

// UnmarshalJSON decodes a sentiment label; non-string values become empty
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	*s = Sentiment(rawString(data))
	return nil
}

func decodeClassification(data json.RawMessage) Classification {
	var raw map[string]json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &raw) != nil {
		return Classification{}
	}

	c := Classification{
		DetectedEntities: rawStrings(raw["detected_entities"]),
		EntitySentiments: decodeEntitySentiments(raw["entity_sentiments"]),
	}
	if len(c.EntitySentiments) == 0 {
		c.EntitySentiments = decodeEntitySentiments(raw["per_entity_analysis"])
	}

	if author, ok := raw["author"]; ok {
		c.Author = decodeAuthor(author)
	} else {
		// flat author_* fields written by older classifier versions
		c.Author = decodeAuthorFields(raw, "author_")
	}

	return c
}

// decodeEntitySentiments accepts either a list of {entity, sentiment}
// objects or an object keyed by entity name.
func decodeEntitySentiments(data json.RawMessage) []EntitySentiment {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var result []EntitySentiment
	switch data[0] {
	case '[':
		var elements []json.RawMessage
		if json.Unmarshal(data, &elements) != nil {
			return nil
		}
		for _, element := range elements {
			var entry map[string]json.RawMessage
			if json.Unmarshal(element, &entry) != nil {
				continue
			}
			name := rawString(entry["entity"])
			if name == "" {
				name = rawString(entry["name"])
			}
			if strings.TrimSpace(name) == "" {
				continue
			}
			result = append(result, EntitySentiment{
				Entity:    name,
				Sentiment: Sentiment(rawString(entry["sentiment"])),
			})
		}
	case '{':
		var byName map[string]json.RawMessage
		if json.Unmarshal(data, &byName) != nil {
			return nil
		}
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				continue
			}
			value := byName[name]
			label := rawString(value)
			if label == "" {
				var nested map[string]json.RawMessage
				if json.Unmarshal(value, &nested) == nil {
					label = rawString(nested["sentiment"])
				}
			}
			result = append(result, EntitySentiment{Entity: name, Sentiment: Sentiment(label)})
		}
	}

	return result
}

func decodeAuthor(data json.RawMessage) *Author {
	var raw map[string]json.RawMessage
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	return decodeAuthorFields(raw, "")
}

func decodeAuthorFields(raw map[string]json.RawMessage, prefix string) *Author {
	a := &Author{
		Name:      rawString(raw[prefix+"name"]),
		Handle:    rawString(raw[prefix+"handle"]),
		AvatarURL: rawString(raw[prefix+"avatar_url"]),
		Verified:  rawBool(raw[prefix+"verified"]),
	}
	if a.Handle == "" {
		a.Handle = rawString(raw[prefix+"username"])
	}
	if a.AvatarURL == "" {
		a.AvatarURL = rawString(raw[prefix+"avatar"])
	}
	if followers, ok := rawInt(raw[prefix+"followers"]); ok {
		a.Followers = &followers
	} else if followers, ok := rawInt(raw[prefix+"followers_count"]); ok {
		a.Followers = &followers
	}

	if a.Name == "" && a.Handle == "" && a.AvatarURL == "" && a.Followers == nil {
		return nil
	}
	return a
}

func rawString(data json.RawMessage) string {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// rawStrings accepts a list (keeping only string elements) or a single string
func rawStrings(data json.RawMessage) []string {
	if isNull(data) {
		return nil
	}

	var items []json.RawMessage
	if json.Unmarshal(data, &items) != nil {
		if s := rawString(data); s != "" {
			return []string{s}
		}
		return nil
	}

	var result []string
	for _, item := range items {
		if isNull(item) {
			continue
		}
		var s string
		if json.Unmarshal(item, &s) == nil {
			result = append(result, s)
		}
	}
	return result
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func rawInt(data json.RawMessage) (int, bool) {
	if isNull(data) {
		return 0, false
	}

	var n float64
	if json.Unmarshal(data, &n) == nil {
		return int(math.Round(n)), true
	}

	if s := rawString(data); s != "" {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return int(math.Round(parsed)), true
		}
	}
	return 0, false
}

func rawBool(data json.RawMessage) bool {
	var b bool
	if len(data) == 0 || json.Unmarshal(data, &b) != nil {
		return false
	}
	return b
}

func rawTime(data json.RawMessage) time.Time {
	s := rawString(data)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func clampRisk(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
