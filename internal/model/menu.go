package model

import "time"

// MenuItem is a single dish on a restaurant's regular menu.
// Corresponds to a row in the `menu_items` table.
type MenuItem struct {
    ID           uint64    // menu_items.id
    RestaurantID uint64    // menu_items.restaurant_id
    Name         string    // menu_items.name
    Price        float64   // menu_items.price
    Category     string    // menu_items.category
    Description  *string   // menu_items.description (nullable)
    Discount     int       // menu_items.discount (percentage, 0-100)
    CreatedAt    time.Time // menu_items.created_at
    UpdatedAt    time.Time // menu_items.updated_at
}

// SpecialMenu is a promotional fixed-price menu offered by a restaurant.
// A special menu bundles regular menu items through the
// special_menu_items link table.  Corresponds to `special_menus`.
type SpecialMenu struct {
    ID                 uint64    // special_menus.id
    RestaurantID       uint64    // special_menus.restaurant_id
    Name               string    // special_menus.name
    Description        *string   // special_menus.description (nullable)
    OriginalPrice      float64   // special_menus.original_price
    DiscountedPrice    float64   // special_menus.discounted_price
    DiscountPercentage int       // special_menus.discount_percentage
    PhotoURL           *string   // special_menus.photo_url (nullable)
    CreatedAt          time.Time // special_menus.created_at
    UpdatedAt          time.Time // special_menus.updated_at
}

// SpecialMenuItem links one menu item into one special menu.  It is a
// pure many-to-many join row; both sides must belong to the same
// restaurant, which is enforced by ownership checks on every write.
type SpecialMenuItem struct {
    ID            uint64    // special_menu_items.id
    SpecialMenuID uint64    // special_menu_items.special_menu_id
    MenuItemID    uint64    // special_menu_items.menu_item_id
    CreatedAt     time.Time // special_menu_items.created_at
}
