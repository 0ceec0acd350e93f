package resolver

import (
	"testing"
	"time"

	"go-paper-orders/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogResolver() *Resolver {
	names := make([]string, len(model.DefaultCatalog))
	for i, item := range model.DefaultCatalog {
		names[i] = item.Name
	}
	return New(names)
}

func TestResolve_CatalogNamesRoundTrip(t *testing.T) {
	r := catalogResolver()
	for i, name := range r.Names() {
		got, score, ok := r.Resolve(name, DefaultThreshold)
		require.True(t, ok, name)
		assert.Equal(t, name, got)
		assert.InDelta(t, 1.0, score, 1e-9, name)

		// the raw vector of a name is a unit vector
		assert.InDelta(t, 1.0, r.Score(name, i), 1e-9, name)
	}
}

func TestResolve_FuzzyPhrases(t *testing.T) {
	r := catalogResolver()

	tests := []struct {
		phrase string
		want   string
	}{
		{"A4 printer paper", "A4 paper"},
		{"high-quality glossy paper", "Glossy paper"},
		{"heavy cardstock (white)", "Cardstock"},
		{"cardstock in assorted colors", "Cardstock"},
		{"paper cups for the party", "Paper cups"},
		{"washi tape", "Decorative adhesive tape (washi tape)"},
		{"A4 paper for our event on April", "A4 paper"},
		{"napkins", "Paper napkins"},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, score, ok := r.Resolve(tt.phrase, DefaultThreshold)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, score, DefaultThreshold)
		})
	}
}

func TestResolve_Misses(t *testing.T) {
	r := catalogResolver()

	for _, phrase := range []string{"", "balloons", "please", "(white)", "high-quality"} {
		name, score, ok := r.Resolve(phrase, DefaultThreshold)
		assert.False(t, ok, phrase)
		assert.Empty(t, name)
		assert.Zero(t, score)
	}
}

func TestResolve_TiesPickFirstEntry(t *testing.T) {
	r := New([]string{"Blue folder", "Red folder"})

	got, score, ok := r.Resolve("folder", 0.1)
	require.True(t, ok)
	assert.Equal(t, "Blue folder", got)
	assert.Greater(t, score, 0.0)
}

func TestCleanPhrase(t *testing.T) {
	assert.Equal(t, "glossy paper", CleanPhrase("high-quality glossy paper (A3)"))
	assert.Equal(t, "copy paper", CleanPhrase("Standard  copy paper"))
	assert.Equal(t, "Heavyweight paper", CleanPhrase("Heavyweight paper"))
}

func TestNormalizeRequest(t *testing.T) {
	r := catalogResolver()

	in := "I would like to place a large order: 500 sheets of high-quality A4 printer paper, 300 sheets of heavy cardstock (white) and 200 reams of glossy photo paper. Please deliver by April 15, 2025."
	got := r.NormalizeRequest(in)

	assert.Contains(t, got, "500 sheets of A4 paper,")
	assert.Contains(t, got, "300 sheets of Cardstock and")
	assert.Contains(t, got, "200 reams of ")
	assert.Contains(t, got, "deliver by April 15, 2025.")
}

func TestNormalizeRequest_Idempotent(t *testing.T) {
	r := catalogResolver()

	requests := []string{
		"I need 500 sheets of A4 paper and 200 paper cups for a conference on May 3, 2025.",
		"Please send 1,000 sheets of colored paper, 50 table covers and 10 rolls of banner paper by 2025-06-01.",
		"We want 5 Rolls of banner paper (36-inch width), 40 Large poster paper (24x36 inches)\n20 packets of washi tape",
		"Order: 300 sheets of unicorn parchment, 200 sheets of standard copy paper.",
		"Nothing to see here.",
	}
	for _, req := range requests {
		once := r.NormalizeRequest(req)
		assert.Equal(t, once, r.NormalizeRequest(once), req)
	}

	for _, name := range r.Names() {
		text := "Need 25 " + name + "."
		assert.Equal(t, text, r.NormalizeRequest(text), name)
	}
}

func TestExtractItems(t *testing.T) {
	r := catalogResolver()

	items := r.ExtractItems("For our event on April 15, 2025 we need 1,000 sheets of A4 printer paper, 0 envelopes, 300 sheets of unicorn parchment and 50 paper plates.")

	require.Len(t, items, 4)
	assert.Equal(t, RequestedItem{Phrase: "A4 printer paper", Quantity: 1000, ItemName: "A4 paper", Score: items[0].Score}, items[0])
	assert.Equal(t, "Envelopes", items[1].ItemName)
	assert.Zero(t, items[1].Quantity)
	assert.Equal(t, "unicorn parchment", items[2].Phrase)
	assert.Equal(t, 300, items[2].Quantity)
	assert.Empty(t, items[2].ItemName)
	assert.Equal(t, "Paper plates", items[3].ItemName)
	assert.Equal(t, 50, items[3].Quantity)
}

func TestExtractItems_KeepsUnusualPhrases(t *testing.T) {
	r := catalogResolver()

	items := r.ExtractItems("Send 200 sheets of A4 paper & card, 40 sheets of crêpe paper, 15 red/green streamers.")

	require.Len(t, items, 3)
	assert.Equal(t, "A4 paper & card", items[0].Phrase)
	assert.Equal(t, 200, items[0].Quantity)
	assert.Equal(t, "crêpe paper", items[1].Phrase)
	assert.Equal(t, 40, items[1].Quantity)
	assert.Equal(t, "red/green streamers", items[2].Phrase)
	assert.Equal(t, 15, items[2].Quantity)
}

func TestExtractItems_NoQuantityInsideWords(t *testing.T) {
	r := catalogResolver()

	items := r.ExtractItems("Our A4 supply ran out; send 20 sheets of A4 paper.")
	require.Len(t, items, 1)
	assert.Equal(t, "A4 paper", items[0].ItemName)
	assert.Equal(t, 20, items[0].Quantity)
}

func TestParseRequestedBy(t *testing.T) {
	reqDate := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"month day year", "Please deliver by April 15, 2025.", "2025-04-15"},
		{"weekday prefix", "We need it by Friday, April 4 2025", "2025-04-04"},
		{"no year", "deliver no later than May 2nd", "2025-05-02"},
		{"no year rolls forward", "by January 10", "2026-01-10"},
		{"iso", "needed by 2025-04-20 at the latest", "2025-04-20"},
		{"before is exclusive", "must arrive before April 10, 2025", "2025-04-09"},
		{"first deadline wins", "by 2025-04-05, or at worst by April 30", "2025-04-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRequestedBy(tt.text, reqDate)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}

	_, ok := ParseRequestedBy("No rush on this one, deliver April 45.", reqDate)
	assert.False(t, ok)
}
