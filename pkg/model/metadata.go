package model

import "github.com/tmc/langchaingo/schema"

// ReservedMetadataKeys are owned by the system after ingestion. Values under
// these keys in user-supplied document metadata are stripped before storage;
// only the per-call IndexOptions.Metadata may set them.
var ReservedMetadataKeys = []string{"project_id", "file_id", "user_id"}

// prepareDocuments returns copies of docs with reserved keys stripped from
// the document metadata and the system-assigned call metadata applied on top.
// The input documents are never mutated.
func prepareDocuments(docs []schema.Document, callMetadata map[string]any) []schema.Document {
	prepared := make([]schema.Document, len(docs))
	for i, doc := range docs {
		metadata := make(map[string]any, len(doc.Metadata)+len(callMetadata))
		for k, v := range doc.Metadata {
			if isReserved(k) {
				continue
			}
			metadata[k] = v
		}
		for k, v := range callMetadata {
			metadata[k] = v
		}
		prepared[i] = schema.Document{PageContent: doc.PageContent, Metadata: metadata}
	}
	return prepared
}

func isReserved(key string) bool {
	for _, reserved := range ReservedMetadataKeys {
		if key == reserved {
			return true
		}
	}
	return false
}

// mergeFilters combines caller filters with a strategy-imposed filter. The
// strategy filter wins on collision so callers cannot widen the scope.
func mergeFilters(caller, strategy map[string]any) map[string]any {
	if len(caller) == 0 && len(strategy) == 0 {
		return nil
	}
	merged := make(map[string]any, len(caller)+len(strategy))
	for k, v := range caller {
		merged[k] = v
	}
	for k, v := range strategy {
		merged[k] = v
	}
	return merged
}
