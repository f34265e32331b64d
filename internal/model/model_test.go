package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name           string
		total, page    int
		limit          int
		wantTotalPages int
	}{
		{name: "exact multiple", total: 20, page: 1, limit: 10, wantTotalPages: 2},
		{name: "remainder rounds up", total: 25, page: 2, limit: 10, wantTotalPages: 3},
		{name: "empty", total: 0, page: 1, limit: 10, wantTotalPages: 0},
		{name: "zero limit", total: 5, page: 1, limit: 0, wantTotalPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.wantTotalPages, p.TotalPages)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.limit, p.Limit)
		})
	}
}

func TestRequestStatus_Terminal(t *testing.T) {
	assert.False(t, RequestStatusPending.Terminal())
	assert.True(t, RequestStatusApproved.Terminal())
	assert.True(t, RequestStatusCancelled.Terminal())
}

func TestRequestKind_Valid(t *testing.T) {
	assert.True(t, RequestKindEdit.Valid())
	assert.True(t, RequestKindDelete.Valid())
	assert.False(t, RequestKind("RENAME").Valid())
}

func TestTruncatePeriod(t *testing.T) {
	in := time.Date(2024, 3, 15, 17, 45, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), TruncatePeriod(in))
}
