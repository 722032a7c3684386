// internal/models/context.go
package models

import "time"

// ConversationMessage is a single turn in a guest-host thread, oldest-first
// when carried inside ContextData.
type ConversationMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ReservationContext carries booking facts linked to a thread.
type ReservationContext struct {
	ID         string    `json:"id"`
	GuestName  string    `json:"guestName"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	Nights     int       `json:"nights"`
	GuestCount int       `json:"guestCount"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
}

// LotContext describes the bookable unit the conversation is about.
type LotContext struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	MaxGuests    int     `json:"maxGuests"`
	NightlyPrice float64 `json:"nightlyPrice"`
	CleaningFee  float64 `json:"cleaningFee"`
	PetsAllowed  bool    `json:"petsAllowed"`
	Description  string  `json:"description"`
}

// PropertyContext describes the property a lot belongs to.
type PropertyContext struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// OrganizationContext identifies the host organization.
type OrganizationContext struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ContextData aggregates everything known about a conversation at the moment
// a guest message arrives. Any nested pointer may be nil; absence of a field
// is a valid state and callers must degrade gracefully.
type ContextData struct {
	ThreadID            string                `json:"threadId"`
	ConversationHistory []ConversationMessage `json:"conversationHistory"`
	Reservation         *ReservationContext   `json:"reservation,omitempty"`
	Lot                 *LotContext           `json:"lot,omitempty"`
	Property            *PropertyContext      `json:"property,omitempty"`
	Organization        *OrganizationContext  `json:"organization,omitempty"`
}

// HasMinimumContext reports whether enough structured context exists to
// answer property-specific questions. Conversation history alone is not
// sufficient.
func (c *ContextData) HasMinimumContext() bool {
	if c == nil {
		return false
	}
	return c.Property != nil || c.Lot != nil
}
