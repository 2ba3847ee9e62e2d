package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The three roles the system knows. Self-registration always yields
// RolePartisipan; the other two are admin-provisioned.
const (
	RolePartisipan = "Partisipan"
	RoleAdmin      = "Admin"
	RoleInstitusi  = "Institusi Kesehatan"
)

func IsValidRole(role string) bool {
	switch role {
	case RolePartisipan, RoleAdmin, RoleInstitusi:
		return true
	}
	return false
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Phone     string             `bson:"phone" json:"phone"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	IsVerify  bool               `bson:"is_verify" json:"is_verify"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// PartisipanProfile extends a Partisipan user with donor data. Rhesus stays
// empty until the donor sets it.
type PartisipanProfile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	Rhesus       string             `bson:"rhesus,omitempty" json:"rhesus,omitempty"`
	Domicile     string             `bson:"domicile,omitempty" json:"domicile,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	MedicalNotes string             `bson:"medical_notes,omitempty" json:"medical_notes,omitempty"`
}

type InstitusiProfile struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
}

type AdminProfile struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
}

// Profile is the tagged variant resolved once at the identity boundary.
// Exactly one of the role payloads is set, matching Role.
type Profile struct {
	Role       string             `json:"role"`
	User       User               `json:"user"`
	Partisipan *PartisipanProfile `json:"partisipan,omitempty"`
	Institusi  *InstitusiProfile  `json:"institusi,omitempty"`
	Admin      *AdminProfile      `json:"admin,omitempty"`
}
