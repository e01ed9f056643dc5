package shex

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphlint/internal/ir"
)

func parsePlan(t *testing.T, body string) *ir.ValidationPlan {
	t.Helper()
	plan, err := Parse(header+body, nil, "test.shex")
	require.NoError(t, err)
	return plan
}

func loadMovies(t *testing.T) *ir.ValidationPlan {
	t.Helper()
	src, err := os.ReadFile("../../../testdata/movies.shex")
	require.NoError(t, err)
	plan, err := Parse(string(src), nil, "movies.shex")
	require.NoError(t, err)
	return plan
}

func ids(checks []ir.Check) []string {
	out := make([]string, 0, len(checks))
	for _, c := range checks {
		out = append(out, c.Base().ID)
	}
	return out
}

func TestMoviesPlan(t *testing.T) {
	plan := loadMovies(t)

	assert.Equal(t, []string{ex + "Movie", ex + "Person", ex + "Genre", ex + "Review"}, plan.Shapes)
	assert.Equal(t, []string{"Movie", "Person", "Genre", "Review"}, plan.DeclaredLabels())

	assert.Equal(t, []string{
		"movie-title-exists",
		"movie-title-type",
		"movie-released-type",
		"movie-released-range",
		"movie-tagline-type",
		"movie-has_actor-cardinality",
		"movie-has_director-cardinality",
		"movie-written_by-cardinality",
		"movie-in_genre-cardinality",
		"person-name-exists",
		"person-name-type",
		"person-born-type",
		"genre-name-exists",
		"genre-name-type",
		"genre-rating-values",
		"review-score-exists",
		"review-score-type",
		"review-score-range",
		"review-summary-type",
		"review-summary-strlen",
		"review-review_of-cardinality",
	}, ids(plan.Checks))
}

func TestMoviesOptionalityLaw(t *testing.T) {
	plan := loadMovies(t)

	born, ok := plan.Find("person-born-type")
	require.True(t, ok)
	assert.True(t, born.(*ir.PropertyType).OnlyIfExists)
	_, ok = plan.Find("person-born-exists")
	assert.False(t, ok)

	rating, ok := plan.Find("genre-rating-values")
	require.True(t, ok)
	assert.True(t, rating.(*ir.PropertyValueIn).OnlyIfExists)

	title, ok := plan.Find("movie-title-type")
	require.True(t, ok)
	assert.False(t, title.(*ir.PropertyType).OnlyIfExists)
}

func TestMoviesRelationships(t *testing.T) {
	plan := loadMovies(t)

	actor, _ := plan.Find("movie-has_actor-cardinality")
	card := actor.(*ir.RelationshipCardinality)
	assert.Equal(t, 1, card.MinCount)
	assert.Nil(t, card.MaxCount)
	assert.Equal(t, ir.RelationshipTarget{Type: "HAS_ACTOR", Direction: ir.Outgoing, TargetLabel: "Person"}, card.Relationship)
	assert.Equal(t, "Movie must have at least one HAS_ACTOR relationship to Person", card.Message)

	review, _ := plan.Find("review-review_of-cardinality")
	assert.Equal(t, "Movie", review.(*ir.RelationshipCardinality).Relationship.TargetLabel)

	genre, _ := plan.Find("movie-in_genre-cardinality")
	assert.Equal(t, "Movie may have zero or more IN_GENRE relationships to Genre", genre.Base().Message)
}

func TestShapeWithoutTypeUsesLabel(t *testing.T) {
	plan := parsePlan(t, `
ex:Studio { ex:name xsd:string }
ex:Film { ex:madeBy @ex:Studio ; ex:remakeOf @ex:Missing ? }
`)
	assert.Equal(t, []string{"Studio", "Film"}, plan.DeclaredLabels())

	madeBy, ok := plan.Find("film-made_by-cardinality")
	require.True(t, ok)
	assert.Equal(t, "Studio", madeBy.(*ir.RelationshipCardinality).Relationship.TargetLabel)

	remake, ok := plan.Find("film-remake_of-cardinality")
	require.True(t, ok)
	assert.Equal(t, "Missing", remake.(*ir.RelationshipCardinality).Relationship.TargetLabel)
}

func TestNodeKindsAndInverse(t *testing.T) {
	plan := parsePlan(t, `
ex:PersonShape {
  a [ ex:Person ] ;
  ex:homepage IRI ? ;
  ex:nickname LITERAL ;
  ^ex:directedBy @ex:MovieShape * ;
  ex:knows { ex:name . } {0,3}
}
ex:MovieShape { a [ ex:Movie ] }
`)
	assert.Equal(t, []string{
		"person-homepage-cardinality",
		"person-nickname-exists",
		"person-directed_by-cardinality",
		"person-knows-cardinality",
	}, ids(plan.Checks))

	homepage := plan.Checks[0].(*ir.RelationshipCardinality)
	assert.Equal(t, "Unknown", homepage.Relationship.TargetLabel)
	assert.Equal(t, ir.Ptr(1), homepage.MaxCount)

	directed := plan.Checks[2].(*ir.RelationshipCardinality)
	assert.Equal(t, ir.Incoming, directed.Relationship.Direction)
	assert.Equal(t, "Movie", directed.Relationship.TargetLabel)

	knows := plan.Checks[3].(*ir.RelationshipCardinality)
	assert.Equal(t, 0, knows.MinCount)
	assert.Equal(t, ir.Ptr(3), knows.MaxCount)
}

func TestFacets(t *testing.T) {
	plan := parsePlan(t, `
ex:CodeShape {
  a [ ex:Code ] ;
  ex:iso xsd:string LENGTH 2 PATTERN "^[A-Z]+$" ;
  ex:weight xsd:decimal MINEXCLUSIVE 0 MAXEXCLUSIVE 10.5 ?
}
`)
	assert.Equal(t, []string{
		"code-iso-exists",
		"code-iso-type",
		"code-iso-pattern",
		"code-iso-strlen",
		"code-weight-type",
		"code-weight-range",
	}, ids(plan.Checks))

	strlen := plan.Checks[3].(*ir.PropertyStringLength)
	assert.Equal(t, ir.Ptr(2), strlen.MinLength)
	assert.Equal(t, ir.Ptr(2), strlen.MaxLength)

	weightType := plan.Checks[4].(*ir.PropertyType)
	assert.Equal(t, "float", weightType.ExpectedType)

	rng := plan.Checks[5].(*ir.PropertyRange)
	assert.Equal(t, ir.Ptr(0.0), rng.MinExclusive)
	assert.Equal(t, ir.Ptr(10.5), rng.MaxExclusive)
	assert.True(t, rng.OnlyIfExists)
}

func TestClosedShape(t *testing.T) {
	plan := parsePlan(t, `
ex:GenreShape CLOSED {
  a [ ex:Genre ] ;
  ex:name xsd:string ;
  ex:parent @ex:GenreShape ?
}
`)
	c, ok := plan.Find("genre-closed-undeclared-props")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "parent"}, c.(*ir.UndeclaredProperties).AllowedProperties)
}

func TestLogicalShapes(t *testing.T) {
	plan := parsePlan(t, `
ex:ContactShape { a [ ex:Contact ] ; ex:name xsd:string }
  AND NOT { ex:status [ "banned" ] }
  AND ( { ex:email . } OR { ex:phone . } )
`)
	assert.Equal(t, []string{
		"contact-name-exists",
		"contact-name-type",
		"contact-logical-not",
		"contact-logical-or",
	}, ids(plan.Checks))

	not := plan.Checks[2].(*ir.Logical)
	assert.Equal(t, ir.KindLogicalNot, not.Kind())
	require.Len(t, not.SubChecks, 1)
	operand := not.SubChecks[0].(*ir.Logical)
	assert.Equal(t, ir.OpAnd, operand.Op)
	assert.Equal(t, "contact-logical-not-operand-1", operand.ID)
	assert.Equal(t, []string{"contact-status-inner-hasvalue", "contact-status-inner-exists"}, ids(operand.SubChecks))

	or := plan.Checks[3].(*ir.Logical)
	assert.Equal(t, ir.KindLogicalOr, or.Kind())
	assert.Equal(t, []string{"contact-email-inner-exists", "contact-phone-inner-exists"}, ids(or.SubChecks))
	assert.Equal(t, "Contact must satisfy OR of 2 conditions", or.Message)
}

func TestOrKeepsOperandsWhole(t *testing.T) {
	plan := parsePlan(t, `
ex:ContactShape { a [ ex:Contact ] }
  AND ( { ex:email xsd:string } OR { ex:phone . } )
`)
	or := plan.Checks[0].(*ir.Logical)
	require.Len(t, or.SubChecks, 2)

	first := or.SubChecks[0].(*ir.Logical)
	assert.Equal(t, "contact-logical-or-operand-1", first.ID)
	assert.Equal(t, ir.KindLogicalAnd, first.Kind())
	assert.Equal(t, []string{"contact-email-inner-type", "contact-email-inner-exists"}, ids(first.SubChecks))
	assert.Equal(t, "contact-phone-inner-exists", or.SubChecks[1].Base().ID)
	assert.Equal(t, "Contact must satisfy OR of 2 conditions", or.Message)
}

func TestOneOfSkipped(t *testing.T) {
	plan := parsePlan(t, `
ex:S { a [ ex:Thing ] ; ( ex:email . | ex:phone . ) ; ex:name . }
`)
	assert.Equal(t, []string{"thing-name-exists"}, ids(plan.Checks))
}

func TestDeterminism(t *testing.T) {
	a := loadMovies(t)
	b := loadMovies(t)
	assert.Equal(t, ids(a.Checks), ids(b.Checks))
}

func TestParseWrapsSyntaxError(t *testing.T) {
	_, err := Parse("ex:S { }", nil, "bad.shex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse shexc")
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)
}
