package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleHash(t *testing.T) {
	assert.Equal(t, int64(0), titleHash(""))
	assert.Equal(t, int64(99162322), titleHash("hello"))
	assert.Equal(t, int64(2115421350), titleHash("The Midnight Library"))
}

func TestGenerateMetadataIsDeterministic(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a := GenerateMetadata("Dune", ref)
	b := GenerateMetadata("Dune", ref)
	assert.Equal(t, a, b)

	assert.Equal(t, "Dune's Author", a.Author)
	assert.Equal(t, time.Date(2011, time.January, 17, 0, 0, 0, 0, time.UTC), a.PublicationDate)
	assert.True(t, strings.HasPrefix(a.Description, `In this remarkable work, "Dune"`))
	assert.Equal(t, AuthorBio("Dune"), a.AuthorBio)
}

func TestGenerateMetadataReviews(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	meta := GenerateMetadata("hello", ref)

	require.Len(t, meta.Reviews, 3)
	names := map[string]bool{}
	for _, r := range meta.Reviews {
		names[r.Name] = true
		assert.Contains(t, r.Text, `"hello"`)
		assert.Contains(t, []int{3, 4, 5}, r.Rating)
		assert.True(t, r.Date.Before(ref))
		assert.False(t, r.Date.Before(ref.AddDate(0, 0, -180)))
	}
	assert.Len(t, names, 3)

	assert.Equal(t, "Samantha X.", meta.Reviews[0].Name)
	assert.Equal(t, "Stephanie N.", meta.Reviews[1].Name)
	assert.Equal(t, "Lauren H.", meta.Reviews[2].Name)
	assert.Equal(t, 5, meta.Reviews[0].Rating)
	assert.Equal(t, ref.AddDate(0, 0, -143), meta.Reviews[0].Date)
}

func TestGenerateMetadataReviewText(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, int64(98), titleHash("b"))

	meta := GenerateMetadata("b", ref)
	assert.Equal(t, `Wonderful book! "b" has everything - great characters, engaging plot, and beautiful prose. One of those books that stays with you.`, meta.Reviews[0].Text)
}

func TestRatingFor(t *testing.T) {
	assert.Equal(t, 5, ratingFor(0))
	assert.Equal(t, 5, ratingFor(5))
	assert.Equal(t, 4, ratingFor(6))
	assert.Equal(t, 4, ratingFor(8))
	assert.Equal(t, 3, ratingFor(9))
}
