package repository

import "strconv"

// placeholder returns the positional placeholder for the n-th argument
// of a query ($1, $2, ...). Dynamic SET and WHERE fragments are always
// assembled from whitelisted column names plus these placeholders;
// values never end up in the query text.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
