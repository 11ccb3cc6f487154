package model

import "time"

// Owner represents a restaurant owner account as stored in the
// `owners` table.  Owners manage restaurants and confirm or cancel
// incoming reservations; they never hold loyalty points.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name.
//  Email     – unique email address.
//  Password  – bcrypt hashed password.
//  Phone     – optional phone number.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Owner struct {
    ID        uint64    // owners.id
    Name      string    // owners.name
    Email     string    // owners.email
    Password  string    // owners.password (bcrypt hash)
    Phone     *string   // owners.phone (nullable)
    CreatedAt time.Time // owners.created_at
    UpdatedAt time.Time // owners.updated_at
}
