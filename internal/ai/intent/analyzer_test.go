package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeMessage_Classification(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		wantIntent    Intent
		minConfidence float64
	}{
		{
			name:          "availability question",
			message:       "Is the apartment available next weekend? Any vacancy?",
			wantIntent:    IntentAvailability,
			minConfidence: 0.7,
		},
		{
			name:          "pricing question",
			message:       "How much does it cost per night? Is there a discount for a week?",
			wantIntent:    IntentPricing,
			minConfidence: 0.7,
		},
		{
			name:          "booking info",
			message:       "Can you confirm my booking? I have not received a confirmation yet.",
			wantIntent:    IntentBookingInfo,
			minConfidence: 0.7,
		},
		{
			name:          "check-in logistics",
			message:       "What time is check-in and where do I find the key?",
			wantIntent:    IntentCheckIn,
			minConfidence: 0.6,
		},
		{
			name:          "amenities",
			message:       "What's the wifi password?",
			wantIntent:    IntentAmenities,
			minConfidence: 0.6,
		},
		{
			name:          "local info",
			message:       "Can you recommend a restaurant nearby?",
			wantIntent:    IntentLocalInfo,
			minConfidence: 0.6,
		},
		{
			name:          "cancellation",
			message:       "I want to cancel and get a refund",
			wantIntent:    IntentCancellation,
			minConfidence: 0.6,
		},
		{
			name:          "complaint",
			message:       "The heating is broken and the bathroom is dirty, this is unacceptable",
			wantIntent:    IntentComplaint,
			minConfidence: 0.7,
		},
		{
			name:          "no keyword match defaults to other",
			message:       "Hello there",
			wantIntent:    IntentOther,
			minConfidence: 0.5,
		},
		{
			name:          "cancellation wins tie against booking vocabulary",
			message:       "I need to cancel my reservation, it's urgent",
			wantIntent:    IntentCancellation,
			minConfidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeMessage(tt.message)
			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.GreaterOrEqual(t, got.Confidence, tt.minConfidence)
			assert.LessOrEqual(t, got.Confidence, 0.9)
		})
	}
}

func TestAnalyzeMessage_EmptyMessage(t *testing.T) {
	got := AnalyzeMessage("")

	assert.Equal(t, IntentOther, got.Intent)
	assert.Equal(t, 0.5, got.Confidence)
	assert.True(t, got.Entities.Empty())
	assert.Equal(t, SentimentNeutral, got.Sentiment)
	assert.Equal(t, UrgencyLow, got.Urgency)
	assert.False(t, got.RequiresAction)
}

func TestAnalyzeMessage_ConfidenceCappedAtPointNine(t *testing.T) {
	// Five amenity keywords in one message would push past the cap.
	got := AnalyzeMessage("Does it have wifi, parking, a pool, a kitchen and a washer?")

	assert.Equal(t, IntentAmenities, got.Intent)
	assert.Equal(t, 0.9, got.Confidence)
}

func TestExtractEntities_Dates(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"numeric slash", "arriving 12/05/2026", []string{"12/05/2026"}},
		{"numeric dash", "from 3-10-26", []string{"3-10-26"}},
		{"month name", "We arrive on June 15 in the evening", []string{"June 15"}},
		{"month name case insensitive", "around october 3", []string{"october 3"}},
		{"both families union", "either 01/02/2026 or March 4", []string{"01/02/2026", "March 4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.message)
			assert.Equal(t, tt.want, got.Dates)
		})
	}
}

func TestExtractEntities_Prices(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []float64
	}{
		{"dollar symbol", "is it $120 per night?", []float64{120}},
		{"euro symbol with decimals", "quoted €1,250.50 total", []float64{1250.50}},
		{"pound symbol", "£80 seems fair", []float64{80}},
		{"trailing unit word", "I paid 90 euros already", []float64{90}},
		{"dollars word", "about 45 dollars", []float64{45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.message)
			assert.Equal(t, tt.want, got.Prices)
		})
	}
}

func TestExtractEntities_GuestCount(t *testing.T) {
	got := ExtractEntities("We are 4 guests plus a dog")
	require.NotNil(t, got.Guests)
	assert.Equal(t, 4, *got.Guests)

	got = ExtractEntities("2 people arriving late")
	require.NotNil(t, got.Guests)
	assert.Equal(t, 2, *got.Guests)

	got = ExtractEntities("no numbers here")
	assert.Nil(t, got.Guests)
}

func TestAnalyzeMessage_Sentiment(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Sentiment
	}{
		{"positive only", "Thanks, the place looks wonderful", SentimentPositive},
		{"negative only", "This is terrible, I am very upset", SentimentNegative},
		{"both cancel out", "Thanks, but honestly the bathroom was terrible", SentimentNeutral},
		{"neither", "What time is breakfast?", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeMessage(tt.message)
			assert.Equal(t, tt.want, got.Sentiment)
		})
	}
}

func TestAnalyzeMessage_Urgency(t *testing.T) {
	assert.Equal(t, UrgencyHigh, AnalyzeMessage("Please answer ASAP").Urgency)
	assert.Equal(t, UrgencyHigh, AnalyzeMessage("I need to cancel my reservation, it's urgent").Urgency)
	assert.Equal(t, UrgencyMedium, AnalyzeMessage("I am really disappointed with the stay").Urgency)
	assert.Equal(t, UrgencyLow, AnalyzeMessage("What time is check-in?").Urgency)
}

func TestAnalyzeMessage_RequiresAction(t *testing.T) {
	assert.True(t, AnalyzeMessage("I want to cancel").RequiresAction)
	assert.True(t, AnalyzeMessage("The shower is broken").RequiresAction)
	assert.True(t, AnalyzeMessage("Please confirm my booking").RequiresAction)
	assert.True(t, AnalyzeMessage("I am angry about the noise outside").RequiresAction)
	assert.False(t, AnalyzeMessage("Is there parking?").RequiresAction)
}

func TestParsePrice_Unparseable(t *testing.T) {
	assert.Equal(t, float64(0), parsePrice("$"))
}
