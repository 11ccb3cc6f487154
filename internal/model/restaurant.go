package model

import "time"

// Restaurant represents a venue owned by an owner account.  A restaurant
// owns menu items, special menus, coupons and reservations.  This struct
// corresponds to a row in the `restaurants` table.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – owner account that manages the restaurant.
//  Name      – restaurant name.
//  Location  – human-readable location/neighbourhood.
//  Cuisine   – cuisine label used for filtering.
//  Rating    – average rating used by the trending listing.
//  Lat, Lng  – geolocation; persisted as a PostGIS point in
//              restaurants.location_cords.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Restaurant struct {
    ID        uint64    // restaurants.id
    OwnerID   uint64    // restaurants.owner_id
    Name      string    // restaurants.name
    Location  string    // restaurants.location
    Cuisine   string    // restaurants.cuisine
    Rating    float64   // restaurants.rating
    Lat       float64   // restaurants.location_cords (Y)
    Lng       float64   // restaurants.location_cords (X)
    CreatedAt time.Time // restaurants.created_at
    UpdatedAt time.Time // restaurants.updated_at
}
