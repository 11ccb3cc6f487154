package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageBoundsDefaults(t *testing.T) {
	page, pageSize, limit, offset := PageBounds(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, pageSize)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)
}

func TestPageBoundsNegativeValues(t *testing.T) {
	page, pageSize, limit, offset := PageBounds(-3, -5)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, pageSize)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)
}

func TestPageBoundsCapsPageSize(t *testing.T) {
	_, pageSize, limit, _ := PageBounds(1, 5000)
	assert.Equal(t, 100, pageSize)
	assert.Equal(t, 100, limit)
}

func TestPageBoundsOffset(t *testing.T) {
	_, _, limit, offset := PageBounds(3, 25)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)
}

func TestPaginateInvariants(t *testing.T) {
	cases := []struct {
		name                          string
		page, pageSize, onPage, total int
	}{
		{"first full page", 1, 10, 10, 45},
		{"middle page", 3, 10, 10, 45},
		{"last partial page", 5, 10, 5, 45},
		{"empty result", 1, 10, 0, 0},
		{"page past the end", 9, 10, 0, 45},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(tc.page, tc.pageSize, tc.onPage, tc.total)
			assert.Equal(t, tc.page, p.CurrentPage)
			assert.Equal(t, tc.onPage, p.RecordsOnCurrentPage)
			assert.Equal(t, (tc.page-1)*tc.pageSize+tc.onPage, p.ViewedRecords)
			assert.Equal(t, tc.total-p.ViewedRecords, p.RemainingRecords)
			assert.Equal(t, tc.total, p.Total)
		})
	}
}
