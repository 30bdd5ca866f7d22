package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

type Hit struct {
	ProgramID      int64    `json:"programId"`
	Score          float64  `json:"score"`
	Title          string   `json:"title"`
	UniversityName string   `json:"universityName"`
	CountryCode    string   `json:"countryCode"`
	DegreeLevel    string   `json:"degreeLevel"`
	Field          string   `json:"field"`
	TuitionUSD     *float64 `json:"tuitionUsd,omitempty"`
	QSRank         *int     `json:"qsRank,omitempty"`
}

type QueryResult struct {
	ProgramIDs []int64
	Hits       []Hit
	TotalHits  int64
	MaxScore   float64
	Took       int64
}

// IndexNotFoundError is returned when the search targets a missing index.
type IndexNotFoundError struct {
	Index string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index %s not found", e.Index)
}

type programDoc struct {
	ProgramID      int64    `json:"program_id"`
	Title          string   `json:"title"`
	UniversityName string   `json:"university_name"`
	CountryCode    string   `json:"country_code"`
	DegreeLevel    string   `json:"degree_level"`
	Field          string   `json:"field"`
	TuitionUSD     *float64 `json:"tuition_usd"`
	QSRank         *int     `json:"qs_rank"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			Score  *float64   `json:"_score"`
			Source programDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func Execute(ctx context.Context, esClient *elasticsearch.Client, q ProgramQuery) (*QueryResult, error) {
	req, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, &IndexNotFoundError{Index: q.Index}
	}
	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &QueryResult{
		ProgramIDs: make([]int64, 0, len(r.Hits.Hits)),
		Hits:       make([]Hit, 0, len(r.Hits.Hits)),
		TotalHits:  r.Hits.Total.Value,
		Took:       time.Since(start).Milliseconds(),
	}
	if r.Hits.MaxScore != nil {
		result.MaxScore = *r.Hits.MaxScore
	}

	for _, h := range r.Hits.Hits {
		doc := h.Source
		hit := Hit{
			ProgramID:      doc.ProgramID,
			Title:          doc.Title,
			UniversityName: doc.UniversityName,
			CountryCode:    doc.CountryCode,
			DegreeLevel:    doc.DegreeLevel,
			Field:          doc.Field,
			TuitionUSD:     doc.TuitionUSD,
			QSRank:         doc.QSRank,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
		result.ProgramIDs = append(result.ProgramIDs, doc.ProgramID)
	}
	return result, nil
}
