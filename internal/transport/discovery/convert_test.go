package discovery

import (
	"testing"

	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestRawFromResult(t *testing.T) {
	data, err := structpb.NewStruct(map[string]any{
		"title": "Refund Policy",
		"link":  "https://example.com/refunds",
		"snippets": []any{
			map[string]any{"snippet": "Returns are accepted within 30 days."},
		},
	})
	if err != nil {
		t.Fatalf("structpb.NewStruct() error = %v", err)
	}

	res := &discoveryenginepb.SearchResponse_SearchResult{
		Id: "doc-1",
		Document: &discoveryenginepb.Document{
			Name:              "projects/p/locations/global/collections/default_collection/dataStores/d/branches/0/documents/doc-1",
			Content: &discoveryenginepb.Document_Content{
				Content: &discoveryenginepb.Document_Content_Uri{Uri: "gs://bucket/doc-1.html"},
			},
			DerivedStructData: data,
		},
	}

	raw := rawFromResult(res)
	if raw.ID != "doc-1" {
		t.Errorf("ID = %q, want %q", raw.ID, "doc-1")
	}
	if raw.URI != "gs://bucket/doc-1.html" {
		t.Errorf("URI = %q, want %q", raw.URI, "gs://bucket/doc-1.html")
	}
	if raw.Metadata["title"] != "Refund Policy" {
		t.Errorf("Metadata[title] = %v", raw.Metadata["title"])
	}
	if raw.Metadata["link"] != "https://example.com/refunds" {
		t.Errorf("Metadata[link] = %v", raw.Metadata["link"])
	}
}

func TestRawFromResultWithoutDocument(t *testing.T) {
	raw := rawFromResult(&discoveryenginepb.SearchResponse_SearchResult{Id: "doc-2"})
	if raw.ID != "doc-2" {
		t.Errorf("ID = %q, want %q", raw.ID, "doc-2")
	}
	if raw.URI != "" || raw.Metadata != nil {
		t.Errorf("expected empty URI and nil metadata, got %q / %v", raw.URI, raw.Metadata)
	}
}

func TestRawFromResultFallsBackToDocumentName(t *testing.T) {
	raw := rawFromResult(&discoveryenginepb.SearchResponse_SearchResult{
		Document: &discoveryenginepb.Document{Name: "documents/doc-3"},
	})
	if raw.ID != "documents/doc-3" {
		t.Errorf("ID = %q, want document name", raw.ID)
	}
}
