package client

import (
	"net/http"
	"net/url"
)

// endpoint is one backend route.
type endpoint struct {
	method string
	path   string

	// streaming marks routes that answer with an event stream.
	streaming bool
}

var (
	evaluateTopicEndpoint    = endpoint{method: http.MethodPost, path: "/api/evaluate-topic", streaming: true}
	preMortemEndpoint        = endpoint{method: http.MethodPost, path: "/api/pre-mortem", streaming: true}
	classifyQuestionEndpoint = endpoint{method: http.MethodPost, path: "/api/classify-question"}
	shadowQuestionsEndpoint  = endpoint{method: http.MethodPost, path: "/api/shadow-questions"}
	generateSummaryEndpoint  = endpoint{method: http.MethodPost, path: "/api/generate-summary", streaming: true}
	saveWorkshopEndpoint     = endpoint{method: http.MethodPost, path: "/api/workshops"}
	listWorkshopsEndpoint    = endpoint{method: http.MethodGet, path: "/api/workshops"}
	pingEndpoint             = endpoint{method: http.MethodGet, path: "/ping"}
)

// workshopEndpoint addresses a single saved workshop.
func workshopEndpoint(id string) endpoint {
	return endpoint{method: http.MethodGet, path: "/api/workshops/" + url.PathEscape(id)}
}
