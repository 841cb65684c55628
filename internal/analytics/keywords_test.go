package analytics_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewit/internal/analytics"
	"reviewit/internal/domain"
)

func TestTopKeywords_TrailingWindowScenario(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	rs := []domain.Review{
		{CompanyName: "A", Date: now.AddDate(0, 0, -10), Sentiment: domain.SentimentPositive, Keywords: []string{"fast", "good"}},
		{CompanyName: "A", Date: now.AddDate(0, 0, -10), Sentiment: domain.SentimentPositive, Keywords: []string{"fast"}},
		{CompanyName: "A", Date: now.AddDate(0, 0, -100), Sentiment: domain.SentimentPositive, Keywords: []string{"fast"}},
	}
	filtered, _ := analytics.Filter{Window: analytics.TrailingDays(90), Sentiment: domain.SentimentPositive}.Apply(rs, now)

	got, err := analytics.TopKeywords(filtered, 10)
	require.NoError(t, err)
	assert.Equal(t, []analytics.KeywordCount{{Keyword: "fast", Count: 2}, {Keyword: "good", Count: 1}}, got)
}

func TestTopKeywords_CountsOncePerReview(t *testing.T) {
	rs := []domain.Review{
		{Date: day(1), Keywords: []string{"a", "a", "a", "b"}},
		{Date: day(2), Keywords: []string{"b"}},
	}
	got, err := analytics.TopKeywords(rs, 10)
	require.NoError(t, err)
	assert.Equal(t, []analytics.KeywordCount{{Keyword: "b", Count: 2}, {Keyword: "a", Count: 1}}, got)
}

func TestTopKeywords_LimitAndTieBreak(t *testing.T) {
	rs := []domain.Review{
		{ID: 1, Date: day(3), Keywords: []string{"z", "y"}},
		{ID: 2, Date: day(2), Keywords: []string{"x", "y"}},
		{ID: 3, Date: day(1), Keywords: []string{"w"}},
	}
	got, err := analytics.TopKeywords(rs, 3)
	require.NoError(t, err)
	// y leads; z, x, w tie at 1 and keep first-seen order (newest review first)
	assert.Equal(t, []analytics.KeywordCount{{Keyword: "y", Count: 2}, {Keyword: "z", Count: 1}, {Keyword: "x", Count: 1}}, got)
}

func TestTopKeywords_OrderIndependent(t *testing.T) {
	var rs []domain.Review
	words := []string{"배송", "가격", "품질", "포장", "친절", "반품"}
	for i := 0; i < 60; i++ {
		rs = append(rs, domain.Review{
			ID:       int64(i + 1),
			Date:     day(i % 7),
			Keywords: []string{words[i%len(words)], words[(i*5)%len(words)], words[(i/3)%len(words)]},
		})
	}
	want, err := analytics.TopKeywordsWithRepresentative(rs, 4)
	require.NoError(t, err)
	require.LessOrEqual(t, len(want), 4)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]domain.Review(nil), rs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := analytics.TopKeywordsWithRepresentative(shuffled, 4)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestTopKeywordsWithRepresentative_LatestWins(t *testing.T) {
	rs := []domain.Review{
		{Seq: 0, Date: day(1), Content: "old", Keywords: []string{"fast"}},
		{Seq: 1, Date: day(5), Content: "newest-first", Keywords: []string{"fast"}},
		{Seq: 2, Date: day(5), Content: "newest-second", Keywords: []string{"fast", "cheap"}},
		{Seq: 3, Date: day(3), Content: "middle", Keywords: []string{"cheap"}},
	}
	got, err := analytics.TopKeywordsWithRepresentative(rs, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, analytics.KeywordExample{Keyword: "fast", Count: 3, LatestReview: "newest-first"}, got[0])
	assert.Equal(t, analytics.KeywordExample{Keyword: "cheap", Count: 2, LatestReview: "newest-second"}, got[1])
}

func TestTopKeywords_NoData(t *testing.T) {
	_, err := analytics.TopKeywords(nil, 10)
	assert.ErrorIs(t, err, domain.ErrNoData)

	_, err = analytics.TopKeywords([]domain.Review{{Date: day(1)}}, 10)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestWordFrequencies_FloorAndCap(t *testing.T) {
	rs := []domain.Review{
		{Date: day(2), Keywords: []string{"a", "a", "a", "b", "b", "c"}},
		{Date: day(1), Keywords: []string{"b", "d", "d"}},
	}
	got, err := analytics.WordFrequencies(rs, analytics.FrequencyOptions{MinCount: 2, MaxKeywords: 50})
	require.NoError(t, err)
	assert.Equal(t, []analytics.KeywordCount{{Keyword: "a", Count: 3}, {Keyword: "b", Count: 3}, {Keyword: "d", Count: 2}}, got)
	assert.Equal(t, map[string]int{"a": 3, "b": 3, "d": 2}, analytics.FrequencyMap(got))

	got, err = analytics.WordFrequencies(rs, analytics.FrequencyOptions{MinCount: 2, MaxKeywords: 1})
	require.NoError(t, err)
	assert.Equal(t, []analytics.KeywordCount{{Keyword: "a", Count: 3}}, got)

	_, err = analytics.WordFrequencies(rs, analytics.FrequencyOptions{MinCount: 5})
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func day(d int) time.Time { return time.Date(2025, 1, 1+d, 9, 0, 0, 0, time.UTC) }
