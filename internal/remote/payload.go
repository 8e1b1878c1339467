package remote

import (
	"encoding/json"
	"strconv"
)

// Ref is one entry of a list or search response.
type Ref struct {
	UID  string
	Name string
	URL  string
}

// ListResponse is the decoded body of a list request. The remote answers
// either with a paginated listing or with a search result, never both.
type ListResponse interface {
	// Refs returns the entries in response order.
	Refs() []Ref
	isListResponse()
}

// Paginated is the normal listing shape ("results" key).
type Paginated struct {
	Items        []Ref
	TotalPages   int
	TotalRecords int
	Next         string
	Previous     string
}

// SearchResult is the filtered shape returned when a name term is given ("result" key).
type SearchResult struct {
	Items []Ref
}

func (p Paginated) Refs() []Ref    { return p.Items }
func (s SearchResult) Refs() []Ref { return s.Items }

func (Paginated) isListResponse()    {}
func (SearchResult) isListResponse() {}

// Normalize maps either response shape onto one canonical ordered slice of refs,
// dropping entries that carry no UID.
func Normalize(resp ListResponse) []Ref {
	if resp == nil {
		return nil
	}
	in := resp.Refs()
	out := make([]Ref, 0, len(in))
	for _, r := range in {
		if r.UID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Entity is the decoded body of a detail request.
type Entity struct {
	UID         string
	Description string
	Properties  map[string]string
}

// listEntry tolerates both entry layouts: {uid,name,url} and
// {uid,properties:{name,url}}.
type listEntry struct {
	UID        string          `json:"uid"`
	Name       string          `json:"name"`
	URL        string          `json:"url"`
	Properties json.RawMessage `json:"properties"`
}

type listBody struct {
	Results      *[]listEntry `json:"results"`
	Result       *[]listEntry `json:"result"`
	TotalPages   *int         `json:"total_pages"`
	TotalRecords *int         `json:"total_records"`
	Next         *string      `json:"next"`
	Previous     *string      `json:"previous"`
}

type entityBody struct {
	Result *struct {
		UID         string          `json:"uid"`
		Description string          `json:"description"`
		Properties  json.RawMessage `json:"properties"`
	} `json:"result"`
}

type relatedBody struct {
	Result *struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"result"`
}

// decodeList classifies a list body into Paginated or SearchResult.
func decodeList(url string, data []byte) (ListResponse, error) {
	var body listBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, malformed(url, "decoding list: %w", err)
	}

	switch {
	case body.Results != nil:
		p := Paginated{Items: toRefs(*body.Results)}
		if body.TotalPages != nil {
			p.TotalPages = *body.TotalPages
		}
		if body.TotalRecords != nil {
			p.TotalRecords = *body.TotalRecords
		}
		if body.Next != nil {
			p.Next = *body.Next
		}
		if body.Previous != nil {
			p.Previous = *body.Previous
		}
		return p, nil
	case body.Result != nil:
		return SearchResult{Items: toRefs(*body.Result)}, nil
	default:
		return nil, malformed(url, "list response has neither results nor result")
	}
}

func toRefs(entries []listEntry) []Ref {
	refs := make([]Ref, len(entries))
	for i, e := range entries {
		r := Ref{UID: e.UID, Name: e.Name, URL: e.URL}
		if (r.Name == "" || r.URL == "") && len(e.Properties) > 0 {
			props := flattenProperties(e.Properties)
			if r.Name == "" {
				r.Name = props["name"]
			}
			if r.URL == "" {
				r.URL = props["url"]
			}
		}
		refs[i] = r
	}
	return refs
}

func decodeEntity(url string, data []byte) (Entity, error) {
	var body entityBody
	if err := json.Unmarshal(data, &body); err != nil {
		return Entity{}, malformed(url, "decoding entity: %w", err)
	}
	if body.Result == nil {
		return Entity{}, malformed(url, "missing result")
	}
	if len(body.Result.Properties) == 0 || string(body.Result.Properties) == "null" {
		return Entity{}, malformed(url, "missing result.properties")
	}
	props := flattenProperties(body.Result.Properties)
	if props == nil {
		return Entity{}, malformed(url, "result.properties is not an object")
	}
	return Entity{
		UID:         body.Result.UID,
		Description: body.Result.Description,
		Properties:  props,
	}, nil
}

func decodeRelatedName(url string, data []byte) (string, error) {
	var body relatedBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", malformed(url, "decoding related entity: %w", err)
	}
	if body.Result == nil {
		return "", malformed(url, "missing result")
	}
	return body.Result.Properties.Name, nil
}

// flattenProperties keeps scalar properties as strings. Arrays and objects
// (films, vehicles) are not scalar attributes and are skipped. Returns nil
// if raw is not a JSON object.
func flattenProperties(raw json.RawMessage) map[string]string {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil || generic == nil {
		return nil
	}
	props := make(map[string]string, len(generic))
	for k, v := range generic {
		switch val := v.(type) {
		case string:
			props[k] = val
		case float64:
			props[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			props[k] = strconv.FormatBool(val)
		}
	}
	return props
}
