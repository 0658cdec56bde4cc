package importer

import (
	"testing"

	"festbook/internal/models"
	"festbook/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImporter(t *testing.T) (*Importer, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:", nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, zerolog.Nop()), s
}

func TestParseVenues(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		venues := ParseVenues("B\tSide Hall\t2025-12-24\tJoint\t50\tHidden\tback entrance")
		require.Len(t, venues, 1)

		v := venues[0]
		assert.NotEmpty(t, v.ID)
		assert.Equal(t, "B", v.ShortName)
		assert.Equal(t, "Side Hall", v.Name)
		assert.Equal(t, "2025-12-24", v.Date)
		assert.Equal(t, models.CategoryJoint, v.Category)
		assert.Equal(t, 50, v.Capacity)
		assert.Equal(t, 0, v.Registered)
		assert.Equal(t, "Hidden", v.Status)
		assert.Equal(t, "back entrance", v.Remark)
	})

	t.Run("optional fields default", func(t *testing.T) {
		venues := ParseVenues("B\tSide Hall\t2025-12-24\tSingle\t50")
		require.Len(t, venues, 1)
		assert.Equal(t, models.StatusOpen, venues[0].Status)
		assert.Equal(t, "", venues[0].Remark)
	})

	t.Run("invalid capacity defaults to one", func(t *testing.T) {
		venues := ParseVenues("B\tX\t2025-12-24\tSingle\tlots\nC\tY\t2025-12-24\tSingle\t-3")
		require.Len(t, venues, 2)
		assert.Equal(t, 1, venues[0].Capacity)
		assert.Equal(t, 1, venues[1].Capacity)
	})

	t.Run("bilingual category is normalised", func(t *testing.T) {
		venues := ParseVenues("B\tX\t2025-12-24\t合辦\t10")
		require.Len(t, venues, 1)
		assert.Equal(t, models.CategoryJoint, venues[0].Category)
	})

	t.Run("malformed lines are dropped", func(t *testing.T) {
		venues := ParseVenues("too\tfew\tfields\nB\tX\t2025-12-24\tSingle\t10\n\n")
		assert.Len(t, venues, 1)
	})
}

func TestImportVenues_AppendsOnly(t *testing.T) {
	imp, s := newImporter(t)

	count, err := imp.ImportVenues("B\tSide Hall\t2025-12-24\tJoint\t50")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, s.Venues(), 3) // two seeded + one imported

	// Importing the identical line again appends a second venue with a
	// fresh id; venue import never merges.
	count, err = imp.ImportVenues("B\tSide Hall\t2025-12-24\tJoint\t50")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, s.Venues(), 4)
}

func TestParseGroups(t *testing.T) {
	groups := ParseGroups("g1\tAlpha\tJohn\tJane\ng2\tBeta\tMo\ng3\tGamma\nshort")
	require.Len(t, groups, 3)

	assert.Equal(t, models.Group{ID: "g1", Name: "Alpha", Leader1: "John", Leader2: "Jane"}, groups[0])
	assert.Equal(t, models.Group{ID: "g2", Name: "Beta", Leader1: "Mo"}, groups[1])
	assert.Equal(t, models.Group{ID: "g3", Name: "Gamma"}, groups[2])
}

func TestImportGroups_MergeByIDPresence(t *testing.T) {
	imp, s := newImporter(t)

	t.Run("duplicate line inside one import", func(t *testing.T) {
		count, err := imp.ImportGroups("g1\tAlpha Team\tJohn\tJane\ng1\tDuplicate\t\t")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		groups := s.Groups()
		require.Len(t, groups, 1)
		assert.Equal(t, "Alpha Team", groups[0].Name)
	})

	t.Run("re-import is dedup-idempotent", func(t *testing.T) {
		count, err := imp.ImportGroups("g1\tAlpha Team\tJohn\tJane")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Len(t, s.Groups(), 1)
	})

	t.Run("existing ids are skipped, new ones inserted", func(t *testing.T) {
		count, err := imp.ImportGroups("g1\tRenamed\ng2\tBeta")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		groups := s.Groups()
		assert.Len(t, groups, 2)
		assert.Equal(t, "Alpha Team", groups[0].Name) // skip means no update
	})
}
