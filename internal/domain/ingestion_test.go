package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIngestionRecord(t *testing.T) {
	valid := func() *IngestionRecord {
		return &IngestionRecord{ID: "rec-1", DocumentID: "pdf:a.pdf", State: IngestionStatePending}
	}

	tests := []struct {
		name    string
		mutate  func(r *IngestionRecord) *IngestionRecord
		wantErr bool
	}{
		{"valid", func(r *IngestionRecord) *IngestionRecord { return r }, false},
		{"nil", func(r *IngestionRecord) *IngestionRecord { return nil }, true},
		{"missing id", func(r *IngestionRecord) *IngestionRecord { r.ID = ""; return r }, true},
		{"missing document", func(r *IngestionRecord) *IngestionRecord { r.DocumentID = ""; return r }, true},
		{"bad state", func(r *IngestionRecord) *IngestionRecord { r.State = "done"; return r }, true},
		{"negative count", func(r *IngestionRecord) *IngestionRecord { r.ChunkCount = -1; return r }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIngestionRecord(tt.mutate(valid()))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBatchResult_Counts(t *testing.T) {
	b := &BatchResult{Items: []ItemResult{
		{Source: "a.pdf", OK: true},
		{Source: "b.pdf", OK: false, Error: "no text"},
		{Source: "c.pdf", OK: true},
	}}

	assert.Equal(t, 2, b.Succeeded())
	assert.Equal(t, 1, b.Failed())
}
