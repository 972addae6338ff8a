// Package dxf parses ASCII DXF drawings into the entity model consumed by
// the setback checker. Only the ENTITIES section is read, and each entity
// is reduced to its layer, center position and bounding extents.
package dxf

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/plancheck/plancheck/internal/errors"
	"github.com/plancheck/plancheck/internal/setback"
)

// Entity types reduced to a footprint. Anything else is skipped.
const (
	typeLine       = "LINE"
	typeLwPolyline = "LWPOLYLINE"
	typePolyline   = "POLYLINE"
	typeVertex     = "VERTEX"
	typeCircle     = "CIRCLE"
	typePoint      = "POINT"
	typeInsert     = "INSERT"
)

// rawEntity accumulates group codes for the entity currently being read.
type rawEntity struct {
	entityType string
	layer      string
	x, y       float64 // primary point (codes 10/20)
	x2, y2     float64 // secondary point (codes 11/21)
	hasSecond  bool
	radius     float64 // code 40
	vertices   [][2]float64
}

// Parse reads an ASCII DXF document and returns the entities of its
// ENTITIES section in file order. Unknown entity types are skipped;
// malformed numeric values are errors.
func Parse(r io.Reader) ([]setback.Entity, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var entities []setback.Entity
	var current *rawEntity
	inEntities := false
	expectSectionName := false
	lineNo := 0

	for {
		code, value, ok, err := nextPair(scanner, &lineNo)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if code != 0 && !inEntities && !expectSectionName {
			continue
		}

		switch {
		case code == 0 && value == "SECTION":
			expectSectionName = true
		case code == 2 && expectSectionName:
			inEntities = value == "ENTITIES"
			expectSectionName = false
		case code == 0 && value == "ENDSEC":
			if current != nil {
				appendFootprint(&entities, current)
				current = nil
			}
			inEntities = false
		case code == 0 && value == "EOF":
			inEntities = false
		case !inEntities:
			// outside the ENTITIES section nothing else matters
		case code == 0:
			// VERTEX records belong to the open POLYLINE; SEQEND closes it
			if value == typeVertex && current != nil && current.entityType == typePolyline {
				break
			}
			if value == "SEQEND" {
				break
			}
			if current != nil {
				appendFootprint(&entities, current)
			}
			current = &rawEntity{entityType: value}
		case current == nil:
			// stray group before the first entity
		default:
			if err := current.apply(code, value, lineNo); err != nil {
				return nil, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Component("dxf").
			Build()
	}

	return entities, nil
}

// nextPair reads one group code / value pair. DXF is line oriented: a code
// line followed by a value line.
func nextPair(scanner *bufio.Scanner, lineNo *int) (code int, value string, ok bool, err error) {
	if !scanner.Scan() {
		return 0, "", false, nil
	}
	*lineNo++
	codeStr := strings.TrimSpace(scanner.Text())

	if !scanner.Scan() {
		return 0, "", false, errors.Newf("unexpected end of file after group code at line %d", *lineNo).
			Category(errors.CategoryFileParsing).
			Component("dxf").
			Context("line", *lineNo).
			Build()
	}
	*lineNo++
	value = strings.TrimSpace(scanner.Text())

	code, convErr := strconv.Atoi(codeStr)
	if convErr != nil {
		return 0, "", false, errors.Newf("invalid group code %q at line %d", codeStr, *lineNo-1).
			Category(errors.CategoryFileParsing).
			Component("dxf").
			Context("line", *lineNo-1).
			Build()
	}

	return code, value, true, nil
}

// apply records one group code on the entity being built.
func (re *rawEntity) apply(code int, value string, lineNo int) error {
	switch code {
	case 8:
		re.layer = value
		return nil
	case 10, 20, 11, 21, 40:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Newf("invalid numeric value %q for group code %d at line %d", value, code, lineNo).
				Category(errors.CategoryFileParsing).
				Component("dxf").
				Context("group_code", code).
				Context("line", lineNo).
				Build()
		}
		switch code {
		case 10:
			if re.entityType == typeLwPolyline || re.entityType == typePolyline {
				re.vertices = append(re.vertices, [2]float64{f, 0})
			} else {
				re.x = f
			}
		case 20:
			if re.entityType == typeLwPolyline || re.entityType == typePolyline {
				if n := len(re.vertices); n > 0 {
					re.vertices[n-1][1] = f
				}
			} else {
				re.y = f
			}
		case 11:
			re.x2 = f
			re.hasSecond = true
		case 21:
			re.y2 = f
			re.hasSecond = true
		case 40:
			re.radius = f
		}
		return nil
	default:
		// group codes the footprint model doesn't use
		return nil
	}
}

// appendFootprint reduces a finished raw entity to its bounding footprint
// and appends it. Unsupported entity types are dropped.
func appendFootprint(entities *[]setback.Entity, re *rawEntity) {
	layer := setback.ParseLayer(re.layer)

	switch re.entityType {
	case typeLine:
		if !re.hasSecond {
			return
		}
		*entities = append(*entities, boundsEntity(layer, [][2]float64{{re.x, re.y}, {re.x2, re.y2}}))
	case typeLwPolyline, typePolyline:
		if len(re.vertices) == 0 {
			return
		}
		*entities = append(*entities, boundsEntity(layer, re.vertices))
	case typeCircle:
		*entities = append(*entities, setback.Entity{
			Layer:  layer,
			X:      re.x,
			Y:      re.y,
			Width:  re.radius * 2,
			Height: re.radius * 2,
		})
	case typePoint, typeInsert:
		*entities = append(*entities, setback.Entity{Layer: layer, X: re.x, Y: re.y})
	}
}

// boundsEntity builds an entity from the bounding box of a vertex list.
func boundsEntity(layer setback.Layer, vertices [][2]float64) setback.Entity {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range vertices {
		minX = math.Min(minX, v[0])
		maxX = math.Max(maxX, v[0])
		minY = math.Min(minY, v[1])
		maxY = math.Max(maxY, v[1])
	}
	return setback.Entity{
		Layer:  layer,
		X:      (minX + maxX) / 2,
		Y:      (minY + maxY) / 2,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
