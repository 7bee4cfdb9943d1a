package answer

import (
	"strings"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
)

// normalizeResults projects raw backend records into citations. Records that
// cannot be projected are skipped; relative order of the rest is preserved,
// so the output is never longer than the input.
func normalizeResults(raws []domain.RawResult) []domain.Citation {
	citations := make([]domain.Citation, 0, len(raws))
	for _, raw := range raws {
		if c, ok := projectCitation(raw); ok {
			citations = append(citations, c)
		}
	}
	return citations
}

// projectCitation extracts a citation from one raw record, best-effort.
// Missing fields become empty strings per the Citation contract; ok is false
// only when a present field has an unusable shape.
func projectCitation(raw domain.RawResult) (domain.Citation, bool) {
	c := domain.Citation{ID: raw.ID}
	meta := raw.Metadata

	title, ok := stringField(meta, "title")
	if !ok {
		return domain.Citation{}, false
	}
	if title == "" {
		// Backend versions that omit "title" may carry it as an HTML title.
		if title, ok = stringField(meta, "htmlTitle"); !ok {
			return domain.Citation{}, false
		}
	}
	c.Title = title

	uri, ok := stringField(meta, "link")
	if !ok {
		return domain.Citation{}, false
	}
	if uri == "" {
		if uri, ok = stringField(meta, "uri"); !ok {
			return domain.Citation{}, false
		}
	}
	if uri == "" {
		uri = raw.URI
	}
	c.URI = uri

	snippet, ok := joinSnippets(meta)
	if !ok {
		return domain.Citation{}, false
	}
	c.Snippet = snippet

	return c, true
}

// stringField reads an optional string key from metadata. Absent keys yield
// ""; a present key of another type makes the record unusable.
func stringField(meta map[string]any, key string) (string, bool) {
	v, present := meta[key]
	if !present {
		return "", true
	}
	s, isString := v.(string)
	return s, isString
}

// joinSnippets space-joins the "snippet" field of every entry in the
// metadata snippet list, in list order.
func joinSnippets(meta map[string]any) (string, bool) {
	v, present := meta["snippets"]
	if !present {
		return "", true
	}
	entries, isList := v.([]any)
	if !isList {
		return "", false
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		entry, isMap := e.(map[string]any)
		if !isMap {
			return "", false
		}
		s, ok := stringField(entry, "snippet")
		if !ok {
			return "", false
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), true
}
