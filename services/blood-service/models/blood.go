package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Darah is a completed donation event.
type Darah struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Volume       int64              `bson:"volume" json:"volume"`
	PartisipanID primitive.ObjectID `bson:"partisipan_id" json:"partisipan_id"`
	InstitusiID  primitive.ObjectID `bson:"institusi_id" json:"institusi_id"`
	DonationDate time.Time          `bson:"donation_date" json:"donation_date"`
	ExpiryDate   *time.Time         `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Inventory is stock derived from a donation, held by an institution.
type Inventory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Stock       int64              `bson:"stock" json:"stock"`
	InstitusiID primitive.ObjectID `bson:"institusi_id" json:"institusi_id"`
	DarahID     primitive.ObjectID `bson:"darah_id" json:"darah_id"`
	OrderDate   time.Time          `bson:"order_date" json:"order_date"`
}

// Order lifecycle. Ordered is the only non-terminal state; the three
// others never transition again.
const (
	StatusOrdered   = "Ordered"
	StatusAccepted  = "Accepted"
	StatusRejected  = "Rejected"
	StatusCancelled = "Cancelled"
)

func IsValidStatus(status string) bool {
	switch status {
	case StatusOrdered, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminalStatus reports whether status ends the order lifecycle.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from current to next.
// The only legal moves are Ordered -> {Accepted, Rejected, Cancelled}.
func CanTransition(current, next string) bool {
	return current == StatusOrdered && IsTerminalStatus(next)
}

// Order is a donor's request against inventory.
type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PartisipanID primitive.ObjectID `bson:"partisipan_id" json:"partisipan_id"`
	InventoryID  primitive.ObjectID `bson:"inventory_id" json:"inventory_id"`
	Volume       int64              `bson:"volume" json:"volume"`
	OrderDate    time.Time          `bson:"order_date" json:"order_date"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
