package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
	ErrInvalidSort      = errors.New("invalid sort")
)

const (
	QueryTypeProgramSearch = "program_search"

	DefaultSize = 20
	MaxSize     = 100
)

// ProgramsMapping is the index body for the programs index.
const ProgramsMapping = `{
	"mappings": {
		"properties": {
			"program_id": {"type": "long"},
			"title": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"university_name": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"field": {"type": "keyword", "fields": {"text": {"type": "text"}}},
			"country_code": {"type": "keyword"},
			"degree_level": {"type": "keyword"},
			"language": {"type": "keyword"},
			"tuition_usd": {"type": "double"},
			"qs_rank": {"type": "integer"},
			"has_scholarship": {"type": "boolean"}
		}
	}
}`

// sortable maps accepted sort keys to index fields.
var sortable = map[string]string{
	"relevance":   "_score",
	"qs_rank":     "qs_rank",
	"tuition_usd": "tuition_usd",
	"title":       "title.raw",
}

// ProgramQuery is a programs index search.
type ProgramQuery struct {
	Index        string
	QueryType    string
	Keywords     string
	Countries    []string
	DegreeLevels []string
	Fields       []string
	MinTuition   *float64
	MaxTuition   *float64
	SortBy       string
	SortOrder    string
	From         int
	Size         int
}

// normalize clamps pagination into [1, MaxSize].
func (q *ProgramQuery) normalize() {
	if q.QueryType == "" {
		q.QueryType = QueryTypeProgramSearch
	}
	if q.From < 0 {
		q.From = 0
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	for i, c := range q.Countries {
		q.Countries[i] = strings.ToUpper(c)
	}
}

// BuildQuery builds the search request for q.
func BuildQuery(q ProgramQuery) (*esapi.SearchRequest, error) {
	if q.Index == "" {
		return nil, ErrMissingIndex
	}
	q.normalize()

	if q.QueryType != QueryTypeProgramSearch {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, q.QueryType)
	}

	body, err := buildProgramSearchBody(q)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	return &esapi.SearchRequest{
		Index:          []string{q.Index},
		Body:           bytes.NewReader(encoded),
		From:           &q.From,
		Size:           &q.Size,
		TrackTotalHits: true,
	}, nil
}

func buildProgramSearchBody(q ProgramQuery) (map[string]interface{}, error) {
	must := []interface{}{}
	filter := []interface{}{}

	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     kw,
				"fields":    []string{"title^3", "university_name^2", "field.text"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	terms := []struct {
		field  string
		values []string
	}{
		{"country_code", q.Countries},
		{"degree_level", q.DegreeLevels},
		{"field", q.Fields},
	}
	for _, t := range terms {
		if len(t.values) > 0 {
			filter = append(filter, map[string]interface{}{
				"terms": map[string]interface{}{t.field: t.values},
			})
		}
	}

	if q.MinTuition != nil || q.MaxTuition != nil {
		bounds := map[string]interface{}{}
		if q.MinTuition != nil {
			bounds["gte"] = *q.MinTuition
		}
		if q.MaxTuition != nil {
			bounds["lte"] = *q.MaxTuition
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"tuition_usd": bounds},
		})
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	sort, err := buildSort(q.SortBy, q.SortOrder)
	if err != nil {
		return nil, err
	}
	if sort != nil {
		body["sort"] = sort
	}
	return body, nil
}

// buildSort returns nil for relevance ordering. qs_rank sorts missing ranks last.
func buildSort(by, order string) ([]interface{}, error) {
	if by == "" || by == "relevance" {
		return nil, nil
	}
	field, ok := sortable[by]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidSort, by)
	}

	switch order {
	case "":
		order = "asc"
	case "asc", "desc":
	default:
		return nil, fmt.Errorf("%w: order must be asc or desc", ErrInvalidSort)
	}

	return []interface{}{
		map[string]interface{}{field: map[string]interface{}{"order": order, "missing": "_last"}},
		"_score",
	}, nil
}
