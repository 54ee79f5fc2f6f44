package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validIndex() IndexDef {
	return IndexDef{
		Name: "hotels",
		Fields: []Field{
			{Name: "id", Type: TypeString, Key: true},
			{Name: "name", Type: TypeString, Searchable: true, Retrievable: true, Filterable: true},
			{Name: "rating", Type: TypeDouble, Filterable: true, Sortable: true},
		},
	}
}

func TestValidateIndexDefAcceptsAWellFormedDefinition(t *testing.T) {
	require.NoError(t, ValidateIndexDef(validIndex()))
}

func TestValidateIndexDefRejectsBadName(t *testing.T) {
	d := validIndex()
	d.Name = "Hotels-1"
	require.Error(t, ValidateIndexDef(d))
}

func TestValidateIndexDefRequiresExactlyOneKeyField(t *testing.T) {
	d := validIndex()
	d.Fields[0].Key = false
	require.Error(t, ValidateIndexDef(d))

	d2 := validIndex()
	d2.Fields[1].Key = true
	require.Error(t, ValidateIndexDef(d2))
}

func TestValidateIndexDefRejectsNonStringKeyField(t *testing.T) {
	d := validIndex()
	d.Fields[0].Type = TypeInt64
	require.Error(t, ValidateIndexDef(d))
}

func TestValidateIndexDefRejectsDuplicateFieldNamesCaseInsensitive(t *testing.T) {
	d := validIndex()
	d.Fields = append(d.Fields, Field{Name: "NAME", Type: TypeString})
	require.Error(t, ValidateIndexDef(d))
}

func TestValidateIndexDefRejectsUndefinedDefaultScoringProfile(t *testing.T) {
	d := validIndex()
	d.DefaultScoringProfile = "missing"
	require.Error(t, ValidateIndexDef(d))
}

func TestValidateIndexDefRejectsVectorFieldWithBadDimensions(t *testing.T) {
	d := validIndex()
	d.Fields = append(d.Fields, Field{
		Name: "embedding", Type: Collection(TypeSingle),
		Dimensions: 0, VectorSearchProfile: "p",
	})
	require.Error(t, ValidateIndexDef(d))
}

func TestValidateIndexDefAcceptsVectorFieldWithKnownProfile(t *testing.T) {
	d := validIndex()
	d.VectorSearch = VectorSearchConfig{
		Algorithms: []HNSWAlgorithm{{Name: "alg", M: 16, EfConstruction: 100, EfSearch: 50, Metric: MetricCosine}},
		Profiles:   map[string]string{"p": "alg"},
	}
	d.Fields = append(d.Fields, Field{
		Name: "embedding", Type: Collection(TypeSingle),
		Dimensions: 384, VectorSearchProfile: "p",
	})
	require.NoError(t, ValidateIndexDef(d))
}

func TestValidateIndexDefRejectsSuggesterOverNonStringField(t *testing.T) {
	d := validIndex()
	d.Suggesters = []Suggester{{Name: "sg", SourceFields: []string{"rating"}, SearchMode: "analyzingInfixMatching"}}
	require.Error(t, ValidateIndexDef(d))
}

func TestValidateIndexDefRejectsSuggesterOverMissingField(t *testing.T) {
	d := validIndex()
	d.Suggesters = []Suggester{{Name: "sg", SourceFields: []string{"nope"}, SearchMode: "analyzingInfixMatching"}}
	require.Error(t, ValidateIndexDef(d))
}

func TestValidateIndexDefAcceptsSuggesterOverStringField(t *testing.T) {
	d := validIndex()
	d.Suggesters = []Suggester{{Name: "sg", SourceFields: []string{"name"}, SearchMode: "analyzingInfixMatching"}}
	require.NoError(t, ValidateIndexDef(d))
}

func TestValidateIndexDefRequiresAtLeastOneField(t *testing.T) {
	require.Error(t, ValidateIndexDef(IndexDef{Name: "empty"}))
}

func TestFieldByNameIsCaseInsensitive(t *testing.T) {
	d := validIndex()
	f, ok := d.FieldByName("NAME")
	require.True(t, ok)
	require.Equal(t, "name", f.Name)
}

func TestKeyFieldReturnsTheMarkedField(t *testing.T) {
	d := validIndex()
	f, ok := d.KeyField()
	require.True(t, ok)
	require.Equal(t, "id", f.Name)
}
