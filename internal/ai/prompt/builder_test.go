package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stayflow-workers/internal/ai/intent"
)

func TestBuild_MessageSurvivesVerbatim(t *testing.T) {
	messages := []string{
		"Is the pool open?",
		"¿Está disponible el apartamento?",
		"weird {{chars}} & symbols <ok>",
		"",
	}
	intents := []intent.Intent{
		intent.IntentAvailability,
		intent.IntentPricing,
		intent.IntentComplaint,
		intent.IntentOther,
	}

	for _, msg := range messages {
		for _, it := range intents {
			got := Build(it, msg, "some context")
			assert.Contains(t, got.User, msg)
		}
	}
}

func TestBuild_SystemPromptComposition(t *testing.T) {
	got := Build(intent.IntentAmenities, "Is there wifi?", "UNIT:\n  Title: 2B\n")

	assert.Contains(t, got.System, "vacation rental host")
	assert.Contains(t, got.System, "never invent availability")
	assert.Contains(t, got.System, "amenities")
	assert.Contains(t, got.System, "Reply in the language the guest wrote in.")
	assert.Contains(t, got.System, "CONTEXT:\nUNIT:\n  Title: 2B\n")
}

func TestBuild_EmptyContext(t *testing.T) {
	got := Build(intent.IntentOther, "hello", "")
	assert.Contains(t, got.System, "CONTEXT:\n")
}

func TestTemplateFor_UnknownIntentFallsBackToFAQ(t *testing.T) {
	faq := TemplateFor(intent.IntentOther)
	unknown := TemplateFor(intent.Intent("made_up"))

	assert.Equal(t, faq, unknown)
}

func TestTemplateFor_EveryIntentHasTemplate(t *testing.T) {
	intents := []intent.Intent{
		intent.IntentAvailability,
		intent.IntentPricing,
		intent.IntentBookingInfo,
		intent.IntentCheckIn,
		intent.IntentAmenities,
		intent.IntentLocalInfo,
		intent.IntentCancellation,
		intent.IntentComplaint,
		intent.IntentOther,
	}

	for _, it := range intents {
		tpl := TemplateFor(it)
		assert.NotEmpty(t, tpl.TaskPrompt, string(it))
		assert.Contains(t, tpl.UserPrompt, "{{message}}", string(it))
		assert.Greater(t, tpl.MaxTokens, 0, string(it))
	}
}

func TestBuild_CancellationToneConstraints(t *testing.T) {
	got := Build(intent.IntentCancellation, "I must cancel", "ctx")
	assert.Contains(t, got.System, "Do not promise a refund")
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
}
