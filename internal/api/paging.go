package api

import "encoding/json"

// pagedList accepts both a bare JSON array and the paginated
// {"results": [...]} envelope the server uses on list endpoints.
type pagedList[T any] struct {
	Items []T
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *pagedList[T]) UnmarshalJSON(data []byte) error {
	var plain []T
	if err := json.Unmarshal(data, &plain); err == nil {
		p.Items = plain
		return nil
	}

	var envelope struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	p.Items = envelope.Results
	return nil
}
