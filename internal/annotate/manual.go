package annotate

import (
	"sort"

	"github.com/prairie-archives/nerbench/internal/workspace"
)

// ManualGold assembles a gold standard file from snippets annotated by hand.
// Each snippet's entities are sorted by start offset before the file is
// built, matching the shape the review path produces.
func ManualGold(docID string, meta workspace.DocumentMetadata, snippets []workspace.AnnotatedSnippet) *workspace.AnnotationFile {
	for i := range snippets {
		spans := snippets[i].Entities
		sort.SliceStable(spans, func(a, b int) bool { return spans[a].Start < spans[b].Start })
	}

	f := &workspace.AnnotationFile{
		DocumentID:       docID,
		Metadata:         meta,
		AnnotationDate:   today(),
		Annotator:        workspace.AnnotatorHuman,
		AnnotationMethod: workspace.MethodManual,
		TotalSnippets:    len(snippets),
		Snippets:         snippets,
	}
	f.TotalEntities = f.CountEntities()
	return f
}
