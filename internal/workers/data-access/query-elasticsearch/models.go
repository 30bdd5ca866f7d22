package queryelasticsearch

import "unichance/internal/workers/data-access/query-elasticsearch/queries"

type Input struct {
	IndexName string  `json:"indexName,omitempty"`
	QueryType string  `json:"queryType,omitempty"`
	Filters   Filters `json:"filters"`
	Sort      Sort    `json:"sort"`
	Pagination
}

type Filters struct {
	Keywords     string   `json:"keywords,omitempty"`
	Countries    []string `json:"countries,omitempty"`
	DegreeLevels []string `json:"degreeLevels,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	MinTuition   *float64 `json:"minTuition,omitempty"`
	MaxTuition   *float64 `json:"maxTuition,omitempty"`
}

type Sort struct {
	By    string `json:"by,omitempty"`    // relevance, qs_rank, tuition_usd, title
	Order string `json:"order,omitempty"` // asc, desc
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	ProgramIDs []int64       `json:"programIds"`
	Hits       []queries.Hit `json:"hits"`
	TotalHits  int64         `json:"totalHits"`
	MaxScore   float64       `json:"maxScore"`
	Took       int64         `json:"took"` // milliseconds
}
