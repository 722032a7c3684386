// internal/ai/conversation/render.go
package conversation

import (
	"fmt"
	"strings"

	"stayflow-workers/internal/models"
)

// maxRenderedTurns caps how many prior conversation turns appear in the
// rendered context block.
const maxRenderedTurns = 10

// RenderContext turns ContextData into the labeled plain-text block that is
// appended to the system prompt. Absent substructures are simply omitted.
func RenderContext(ctx *models.ContextData) string {
	if ctx == nil {
		return ""
	}

	var b strings.Builder

	if ctx.Organization != nil {
		fmt.Fprintf(&b, "ORGANIZATION: %s\n", ctx.Organization.Name)
	}

	if ctx.Property != nil {
		b.WriteString("PROPERTY:\n")
		fmt.Fprintf(&b, "  Name: %s\n", ctx.Property.Name)
		if ctx.Property.Address != "" {
			fmt.Fprintf(&b, "  Address: %s\n", ctx.Property.Address)
		}
		if ctx.Property.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", ctx.Property.Description)
		}
	}

	if ctx.Lot != nil {
		b.WriteString("UNIT:\n")
		fmt.Fprintf(&b, "  Title: %s\n", ctx.Lot.Title)
		fmt.Fprintf(&b, "  Bedrooms: %d, Bathrooms: %d, Max guests: %d\n",
			ctx.Lot.Bedrooms, ctx.Lot.Bathrooms, ctx.Lot.MaxGuests)
		fmt.Fprintf(&b, "  Nightly price: %.2f, Cleaning fee: %.2f\n",
			ctx.Lot.NightlyPrice, ctx.Lot.CleaningFee)
		if ctx.Lot.PetsAllowed {
			b.WriteString("  Pets: allowed\n")
		} else {
			b.WriteString("  Pets: not allowed\n")
		}
		if ctx.Lot.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", ctx.Lot.Description)
		}
	}

	if ctx.Reservation != nil {
		r := ctx.Reservation
		b.WriteString("RESERVATION:\n")
		fmt.Fprintf(&b, "  Guest: %s\n", r.GuestName)
		fmt.Fprintf(&b, "  Check-in: %s, Check-out: %s (%d nights)\n",
			r.CheckIn.Format("2006-01-02"), r.CheckOut.Format("2006-01-02"), r.Nights)
		fmt.Fprintf(&b, "  Guests: %d\n", r.GuestCount)
		fmt.Fprintf(&b, "  Total price: %.2f\n", r.TotalPrice)
		fmt.Fprintf(&b, "  Status: %s\n", r.Status)
	}

	if len(ctx.ConversationHistory) > 0 {
		b.WriteString("RECENT CONVERSATION:\n")
		turns := ctx.ConversationHistory
		if len(turns) > maxRenderedTurns {
			turns = turns[len(turns)-maxRenderedTurns:]
		}
		for _, msg := range turns {
			label := "Guest"
			if msg.Role == "assistant" {
				label = "You"
			}
			fmt.Fprintf(&b, "  %s: %s\n", label, msg.Content)
		}
	}

	return b.String()
}
