package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

type Product struct {
	ID               uuid.UUID
	Name             string
	Description      pgtype.Text
	Category         pgtype.Text
	ImageUrl         pgtype.Text
	Price            pgtype.Numeric
	Unit             string
	Variants         []byte
	Spending         pgtype.Numeric
	SpendingVariants []byte
	IsHidden         bool
	IsAvailable      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Order struct {
	ID                  uuid.UUID
	OrderNumber         string
	CustomerName        string
	CustomerPhone       string
	CustomerAddress     pgtype.Text
	Status              string
	PaymentStatus       string
	TotalAmount         pgtype.Numeric
	AdminTimeline       string
	AdminNotes          string
	PaymentReceivedDate pgtype.Timestamptz
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    pgtype.UUID
	ProductName  string
	SelectedSize pgtype.Text
	Quantity     int32
	Price        pgtype.Numeric
	Subtotal     pgtype.Numeric
	CreatedAt    time.Time
}

type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Actor     pgtype.UUID
	Action    string
	Note      string
	CreatedAt time.Time
}

type InvestedCategory struct {
	ID        uuid.UUID
	Name      string
	ParentID  pgtype.UUID
	CreatedAt time.Time
}

type InvestedItem struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Name       string
	Notes      string
	CreatedAt  time.Time
}

type InvestedPurchase struct {
	ID           uuid.UUID
	ItemID       uuid.UUID
	PurchaseDate pgtype.Date
	Price        pgtype.Numeric
	Quantity     pgtype.Numeric
	Weight       pgtype.Text
	Vendor       pgtype.Text
	ExpiryDate   pgtype.Date
	CreatedAt    time.Time
}
