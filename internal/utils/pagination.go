package utils

// Pagination describes the position of one page of records inside the
// full filtered result set. The field names are part of the public API
// contract and must not be renamed.
type Pagination struct {
    CurrentPage          int `json:"currentPage"`
    RecordsOnCurrentPage int `json:"recordsOnCurrentPage"`
    ViewedRecords        int `json:"viewedRecords"`
    RemainingRecords     int `json:"remainingRecords"`
    Total                int `json:"total"`
}

// Paginate computes pagination metadata for a page of records.
// Invariants: viewedRecords = (currentPage-1)*pageSize + recordsOnCurrentPage
// and remainingRecords = total - viewedRecords.
func Paginate(page, pageSize, recordsOnPage, total int) Pagination {
    viewed := (page-1)*pageSize + recordsOnPage
    return Pagination{
        CurrentPage:          page,
        RecordsOnCurrentPage: recordsOnPage,
        ViewedRecords:        viewed,
        RemainingRecords:     total - viewed,
        Total:                total,
    }
}

// PageBounds normalizes raw page/pageSize values and returns them along
// with the LIMIT/OFFSET pair to feed a query. Defaults are page 1 with
// 10 records; pageSize is capped at 100.
func PageBounds(page, pageSize int) (p, ps, limit, offset int) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 10
    }
    if pageSize > 100 {
        pageSize = 100
    }
    return page, pageSize, pageSize, (page - 1) * pageSize
}
