package database

import (
	"errors"
	"testing"

	"docFetcher/internal/acquire"

	"github.com/stretchr/testify/assert"
)

func TestNewAcquisitionSucceeded(t *testing.T) {
	req := acquire.Request{Tags: []string{"5", "math"}, SourceID: "42"}
	record := &acquire.ArtifactRecord{Path: "/data/2026-03-02/5-math-2026-03-02-42.pdf", SizeBytes: 1024, Strategy: acquire.StrategyViewer}

	row := NewAcquisition(req, record, nil)
	assert.Equal(t, &Acquisition{
		Tags:      "5-math",
		SourceID:  "42",
		Path:      record.Path,
		SizeBytes: 1024,
		Strategy:  "viewer_interaction",
		Status:    StatusSucceeded,
	}, row)
}

func TestNewAcquisitionFailed(t *testing.T) {
	req := acquire.Request{Tags: []string{"5", "math"}}

	row := NewAcquisition(req, nil, errors.New("все стратегии исчерпаны"))
	assert.Equal(t, StatusFailed, row.Status)
	assert.Equal(t, "все стратегии исчерпаны", row.Reason)
	assert.Empty(t, row.Path)

	assert.Equal(t, StatusFailed, NewAcquisition(req, nil, nil).Status)
}
