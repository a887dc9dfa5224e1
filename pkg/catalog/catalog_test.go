package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 11)

	seen := make(map[string]bool)
	for _, e := range all {
		assert.NotEmpty(t, e.Name)
		assert.NotEmpty(t, e.Slug)
		assert.True(t, strings.HasPrefix(e.LandingURL, "https://"))
		assert.False(t, seen[e.Slug], "duplicate slug %s", e.Slug)
		seen[e.Slug] = true

		if e.IsExternal {
			assert.NotContains(t, e.LandingURL, "www.ntu.edu.sg")
		}
	}
}

func TestAllReturnsACopy(t *testing.T) {
	a := All()
	a[0].Name = "mutated"
	assert.NotEqual(t, "mutated", All()[0].Name)
}

func TestBySlug(t *testing.T) {
	e, ok := BySlug("nanyang-mba")
	require.True(t, ok)
	assert.Equal(t, "Nanyang MBA", e.Name)

	_, ok = BySlug("no-such-programme")
	assert.False(t, ok)
}

func TestByCategory(t *testing.T) {
	for _, e := range ByCategory("msc") {
		assert.Equal(t, "msc", e.Category)
	}
	assert.Empty(t, ByCategory("phd"))
}

func TestFilter(t *testing.T) {
	all := All()

	assert.Equal(t, all, Filter(all, ""))

	mba := Filter(all, "MBA")
	require.NotEmpty(t, mba)
	for _, e := range mba {
		assert.Contains(t, strings.ToLower(e.Name+e.Slug), "mba")
	}

	finance := Filter(all, "finance")
	require.Len(t, finance, 1)
	assert.Equal(t, "msc-finance", finance[0].Slug)

	assert.Empty(t, Filter(all, "astrophysics"))
}

func TestDegreeType(t *testing.T) {
	cases := []struct {
		entry Entry
		want  string
	}{
		{Entry{Name: "Nanyang Executive MBA", Category: "executive"}, "EMBA"},
		{Entry{Name: "Nanyang MBA", Category: "mba"}, "MBA"},
		{Entry{Name: "MSc Finance", Category: "msc"}, "MSc"},
		{Entry{Name: "Master in Management", Category: "msc"}, "MSc"},
		{Entry{Name: "Graduate Diploma", Category: "other"}, "Other"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.entry.DegreeType(), tc.entry.Name)
	}
}
