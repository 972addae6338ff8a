package dxf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plancheck/plancheck/internal/setback"
)

// dxfDoc wraps entity records in a minimal ENTITIES section.
func dxfDoc(body string) string {
	return "0\nSECTION\n2\nENTITIES\n" + body + "0\nENDSEC\n0\nEOF\n"
}

func TestParse_LwPolylineBoundingBox(t *testing.T) {
	t.Parallel()

	// Closed rectangle from (0,0) to (4,4) on the building layer
	doc := dxfDoc(strings.Join([]string{
		"0", "LWPOLYLINE",
		"8", "BUILDING",
		"90", "4",
		"10", "0", "20", "0",
		"10", "4", "20", "0",
		"10", "4", "20", "4",
		"10", "0", "20", "4",
		"",
	}, "\n"))

	entities, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entities, 1)

	e := entities[0]
	assert.Equal(t, setback.LayerBuilding, e.Layer)
	assert.InDelta(t, 2.0, e.X, 1e-9)
	assert.InDelta(t, 2.0, e.Y, 1e-9)
	assert.InDelta(t, 4.0, e.Width, 1e-9)
	assert.InDelta(t, 4.0, e.Height, 1e-9)
}

func TestParse_LineBoundingBox(t *testing.T) {
	t.Parallel()

	doc := dxfDoc(strings.Join([]string{
		"0", "LINE",
		"8", "BOUNDARY",
		"10", "10", "20", "0",
		"11", "10", "21", "8",
		"",
	}, "\n"))

	entities, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entities, 1)

	e := entities[0]
	assert.Equal(t, setback.LayerBoundary, e.Layer)
	assert.InDelta(t, 10.0, e.X, 1e-9)
	assert.InDelta(t, 4.0, e.Y, 1e-9)
	assert.InDelta(t, 0.0, e.Width, 1e-9)
	assert.InDelta(t, 8.0, e.Height, 1e-9)
}

func TestParse_CircleAndPoint(t *testing.T) {
	t.Parallel()

	doc := dxfDoc(strings.Join([]string{
		"0", "CIRCLE",
		"8", "BUILDING",
		"10", "5", "20", "5",
		"40", "2.5",
		"0", "POINT",
		"8", "BOUNDARY",
		"10", "20", "20", "0",
		"",
	}, "\n"))

	entities, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	circle := entities[0]
	assert.Equal(t, setback.LayerBuilding, circle.Layer)
	assert.InDelta(t, 5.0, circle.Width, 1e-9)
	assert.InDelta(t, 5.0, circle.Height, 1e-9)

	point := entities[1]
	assert.Equal(t, setback.LayerBoundary, point.Layer)
	assert.Equal(t, 0.0, point.Width)
	assert.Equal(t, 0.0, point.Height)
}

func TestParse_UnknownEntityTypesSkipped(t *testing.T) {
	t.Parallel()

	doc := dxfDoc(strings.Join([]string{
		"0", "MTEXT",
		"8", "BUILDING",
		"10", "1", "20", "1",
		"0", "POINT",
		"8", "BOUNDARY",
		"10", "2", "20", "2",
		"",
	}, "\n"))

	entities, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, setback.LayerBoundary, entities[0].Layer)
}

func TestParse_UnrecognizedLayerKept(t *testing.T) {
	t.Parallel()

	// Classification drops foreign layers later; the parser keeps them
	doc := dxfDoc(strings.Join([]string{
		"0", "POINT",
		"8", "TITLE_BLOCK",
		"10", "0", "20", "0",
		"",
	}, "\n"))

	entities, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, setback.LayerOther, entities[0].Layer)
}

func TestParse_EntitiesOutsideSectionIgnored(t *testing.T) {
	t.Parallel()

	doc := "0\nSECTION\n2\nHEADER\n9\n$ACADVER\n1\nAC1027\n0\nENDSEC\n" +
		dxfDoc("0\nPOINT\n8\nBOUNDARY\n10\n1\n20\n1\n")

	entities, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, entities, 1)
}

func TestParse_MalformedNumberIsError(t *testing.T) {
	t.Parallel()

	doc := dxfDoc(strings.Join([]string{
		"0", "POINT",
		"8", "BOUNDARY",
		"10", "not-a-number", "20", "1",
		"",
	}, "\n"))

	entities, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
	assert.Nil(t, entities)
	assert.Contains(t, err.Error(), "not-a-number")
}

func TestParse_TruncatedPairIsError(t *testing.T) {
	t.Parallel()

	doc := "0\nSECTION\n2\nENTITIES\n0\nPOINT\n8"

	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end of file")
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()

	entities, err := Parse(strings.NewReader("0\nEOF\n"))
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestParse_PolylineWithVertexRecords(t *testing.T) {
	t.Parallel()

	doc := dxfDoc(strings.Join([]string{
		"0", "POLYLINE",
		"8", "BOUNDARY",
		"0", "VERTEX",
		"8", "BOUNDARY",
		"10", "0", "20", "0",
		"0", "VERTEX",
		"8", "BOUNDARY",
		"10", "6", "20", "2",
		"0", "SEQEND",
		"",
	}, "\n"))

	entities, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entities, 1)

	e := entities[0]
	assert.InDelta(t, 3.0, e.X, 1e-9)
	assert.InDelta(t, 1.0, e.Y, 1e-9)
	assert.InDelta(t, 6.0, e.Width, 1e-9)
	assert.InDelta(t, 2.0, e.Height, 1e-9)
}
