package models

// Page is the envelope returned by list endpoints when pagination is
// requested via the `page` query parameter.
type Page struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}
