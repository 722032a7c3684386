// internal/ai/prompt/builder.go
package prompt

import (
	"strings"

	"stayflow-workers/internal/ai/intent"
)

// Template is the fixed instruction set for one intent.
type Template struct {
	TaskPrompt  string
	UserPrompt  string
	Temperature float64
	MaxTokens   int
}

// Prompt is the fully interpolated system/user pair handed to a provider.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

const basePrompt = `You are a friendly and professional assistant for a vacation rental host.
Rules you must always follow:
- Answer only from the facts in the CONTEXT section; never invent availability, prices or amenities.
- Never make binding commitments (confirmations, refunds, discounts) on the host's behalf.
- If the guest raises a complaint, cancellation or payment issue, acknowledge it and explain a team member will follow up.
- Be concise and warm.`

const multilingualNote = "Reply in the language the guest wrote in."

const messagePlaceholder = "{{message}}"

var templates = map[intent.Intent]Template{
	intent.IntentAvailability: {
		TaskPrompt:  "Task: answer the guest's availability question using the reservation calendar facts in the context. If availability is not in the context, say you will check and get back to them.",
		UserPrompt:  "Guest asks about availability: {{message}}",
		Temperature: 0.4,
		MaxTokens:   300,
	},
	intent.IntentPricing: {
		TaskPrompt:  "Task: explain pricing using the nightly price and fees in the context. Do not quote totals that are not derivable from the context.",
		UserPrompt:  "Guest asks about pricing: {{message}}",
		Temperature: 0.3,
		MaxTokens:   300,
	},
	intent.IntentBookingInfo: {
		TaskPrompt:  "Task: answer questions about the guest's existing reservation using the reservation facts in the context.",
		UserPrompt:  "Guest asks about their booking: {{message}}",
		Temperature: 0.3,
		MaxTokens:   300,
	},
	intent.IntentCheckIn: {
		TaskPrompt:  "Task: explain check-in and check-out logistics from the context. Never share door codes unless they appear in the context.",
		UserPrompt:  "Guest asks about check-in or check-out: {{message}}",
		Temperature: 0.4,
		MaxTokens:   300,
	},
	intent.IntentAmenities: {
		TaskPrompt:  "Task: describe the unit's amenities using the unit description in the context.",
		UserPrompt:  "Guest asks about amenities: {{message}}",
		Temperature: 0.5,
		MaxTokens:   300,
	},
	intent.IntentLocalInfo: {
		TaskPrompt:  "Task: give local recommendations around the property address in the context. General knowledge is fine here, but stay brief.",
		UserPrompt:  "Guest asks for local tips: {{message}}",
		Temperature: 0.7,
		MaxTokens:   400,
	},
	intent.IntentCancellation: {
		TaskPrompt:  "Task: acknowledge the cancellation request, express understanding, and explain the host will confirm the cancellation terms personally. Do not promise a refund.",
		UserPrompt:  "Guest wants to cancel: {{message}}",
		Temperature: 0.3,
		MaxTokens:   250,
	},
	intent.IntentComplaint: {
		TaskPrompt:  "Task: apologize sincerely, acknowledge the specific problem, and explain a team member is being notified right away. Do not offer compensation.",
		UserPrompt:  "Guest complaint: {{message}}",
		Temperature: 0.3,
		MaxTokens:   250,
	},
	intent.IntentOther: {
		TaskPrompt:  "Task: answer the guest's question as a general FAQ using the context where it helps.",
		UserPrompt:  "Guest message: {{message}}",
		Temperature: 0.5,
		MaxTokens:   300,
	},
}

// TemplateFor returns the instruction template for an intent. Unknown
// intents fall back to the FAQ template.
func TemplateFor(messageIntent intent.Intent) Template {
	if tpl, ok := templates[messageIntent]; ok {
		return tpl
	}
	return templates[intent.IntentOther]
}

// Build assembles the final system and user prompts for one guest turn.
// Deterministic given its inputs.
func Build(messageIntent intent.Intent, message, contextText string) Prompt {
	tpl := TemplateFor(messageIntent)

	system := strings.Join([]string{basePrompt, tpl.TaskPrompt, multilingualNote}, "\n\n") +
		"\nCONTEXT:\n" + contextText

	return Prompt{
		System:      system,
		User:        strings.ReplaceAll(tpl.UserPrompt, messagePlaceholder, message),
		Temperature: tpl.Temperature,
		MaxTokens:   tpl.MaxTokens,
	}
}
