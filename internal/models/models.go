package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index;not null"           json:"user_id"`
	TokenHash  string    `gorm:"uniqueIndex;not null"     json:"-"`
	DeviceInfo string    `json:"device_info"`
	ExpiresAt  time.Time `gorm:"not null"                 json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name        string  `gorm:"not null"                        json:"name"`
	Description string  `gorm:"not null"                        json:"description"`
	Price       float64 `gorm:"not null;check:price >= 0"       json:"price"`
	ImageURL    string  `json:"image_url"`
	Stock       int     `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	IsActive    bool    `gorm:"not null;default:true"           json:"is_active"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                       json:"id"`
	UserID    uint `gorm:"uniqueIndex:idx_cart_user_product;not null"     json:"user_id"`
	ProductID uint `gorm:"uniqueIndex:idx_cart_user_product;not null"     json:"product_id"`
	Quantity  int  `gorm:"not null;check:quantity > 0"                    json:"quantity"`
}

type Order struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID      uint      `gorm:"index;not null"            json:"user_id"`
	TotalAmount float64   `gorm:"not null"                  json:"total_amount"`
	Status      string    `gorm:"not null;default:pending"  json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderItem struct {
	ID              uint    `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID         uint    `gorm:"index;not null"              json:"order_id"`
	ProductID       uint    `gorm:"not null"                    json:"product_id"`
	Quantity        int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	PriceAtPurchase float64 `gorm:"not null"                    json:"price_at_purchase"`
}
