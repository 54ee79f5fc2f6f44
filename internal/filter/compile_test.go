package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/value"
)

func testIndex() catalog.IndexDef {
	return catalog.IndexDef{
		Name: "hotels",
		Fields: []catalog.Field{
			{Name: "id", Type: catalog.TypeString, Key: true},
			{Name: "rating", Type: catalog.TypeDouble, Filterable: true},
			{Name: "category", Type: catalog.TypeString, Filterable: true},
			{Name: "publishedAt", Type: catalog.TypeDateTimeOffset, Filterable: true},
			{Name: "location", Type: catalog.TypeGeographyPoint, Filterable: true},
			{Name: "tags", Type: catalog.Collection(catalog.TypeString), Filterable: true},
			{Name: "description", Type: catalog.TypeString, Searchable: true},
		},
	}
}

func TestCompileSimpleComparison(t *testing.T) {
	c, err := Compile("rating gt 4", testIndex())
	require.NoError(t, err)

	ok, err := c.Residual(map[string]value.Value{"rating": value.Float64(4.5)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Residual(map[string]value.Value{"rating": value.Float64(3.5)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileAndOrNotPrecedence(t *testing.T) {
	c, err := Compile("category eq 'lux' and (rating ge 4 or not (rating lt 2))", testIndex())
	require.NoError(t, err)

	ok, err := c.Residual(map[string]value.Value{
		"category": value.String("lux"),
		"rating":   value.Float64(4.2),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Residual(map[string]value.Value{
		"category": value.String("budget"),
		"rating":   value.Float64(4.2),
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileSearchIn(t *testing.T) {
	c, err := Compile("search.in(category, 'lux,budget,mid', ',')", testIndex())
	require.NoError(t, err)

	ok, err := c.Residual(map[string]value.Value{"category": value.String("budget")})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Residual(map[string]value.Value{"category": value.String("other")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileGeoDistance(t *testing.T) {
	c, err := Compile("geo.distance(location, point(-122.3, 47.6)) lt 10", testIndex())
	require.NoError(t, err)

	near := map[string]value.Value{"location": value.Geo(value.GeoPoint{Lon: -122.31, Lat: 47.61})}
	far := map[string]value.Value{"location": value.Geo(value.GeoPoint{Lon: 10, Lat: 10})}

	ok, err := c.Residual(near)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Residual(far)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileCollectionAnyAll(t *testing.T) {
	idx := testIndex()
	anyC, err := Compile("tags/any(t: t eq 'wifi')", idx)
	require.NoError(t, err)
	allC, err := Compile("tags/all(t: t ne 'smoking')", idx)
	require.NoError(t, err)

	doc := map[string]value.Value{
		"tags": value.List([]value.Value{value.String("wifi"), value.String("pool")}),
	}
	ok, err := anyC.Residual(doc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = allC.Residual(doc)
	require.NoError(t, err)
	assert.True(t, ok)

	smoking := map[string]value.Value{
		"tags": value.List([]value.Value{value.String("smoking")}),
	}
	ok, err = allC.Residual(smoking)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileDateComparison(t *testing.T) {
	c, err := Compile("publishedAt gt 2024-01-01T00:00:00Z", testIndex())
	require.NoError(t, err)

	recent := map[string]value.Value{"publishedAt": value.DateTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))}
	ok, err := c.Residual(recent)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompileTypeMismatchFails(t *testing.T) {
	_, err := Compile("rating eq 'not-a-number'", testIndex())
	assert.Error(t, err)
}

func TestCompileUnfilterableFieldFails(t *testing.T) {
	_, err := Compile("description eq 'x'", testIndex())
	assert.Error(t, err)
}

func TestCompileUnknownFieldFails(t *testing.T) {
	_, err := Compile("nope eq 1", testIndex())
	assert.Error(t, err)
}

func TestPushdownExtractsTopLevelAndClauses(t *testing.T) {
	c, err := Compile("rating gt 3 and category eq 'lux'", testIndex())
	require.NoError(t, err)
	require.Len(t, c.Pushdown, 2)
}

func TestPushdownSkipsOrExpressions(t *testing.T) {
	c, err := Compile("rating gt 3 or category eq 'lux'", testIndex())
	require.NoError(t, err)
	assert.Empty(t, c.Pushdown)
}

func TestCompileEmptyExpressionMatchesEverything(t *testing.T) {
	c, err := Compile("", testIndex())
	require.NoError(t, err)
	ok, err := c.Residual(map[string]value.Value{})
	require.NoError(t, err)
	assert.True(t, ok)
}
