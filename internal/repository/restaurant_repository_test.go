package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestaurantFilterEmpty(t *testing.T) {
	where, args := RestaurantFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestRestaurantFilterRendersOnlySetFields(t *testing.T) {
	cuisine := "Italian"
	rating := 4.0
	where, args := RestaurantFilter{Cuisine: &cuisine, MinRating: &rating}.where()

	assert.Equal(t, " WHERE LOWER(r.cuisine) = LOWER($1) AND r.rating >= $2", where)
	assert.Equal(t, []interface{}{"Italian", 4.0}, args)
}

func TestRestaurantFilterSubstringMatches(t *testing.T) {
	loc := "downtown"
	name := "tratt"
	where, args := RestaurantFilter{Location: &loc, Name: &name}.where()

	assert.Equal(t, " WHERE r.location ILIKE $1 AND r.name ILIKE $2", where)
	assert.Equal(t, []interface{}{"%downtown%", "%tratt%"}, args)
}
