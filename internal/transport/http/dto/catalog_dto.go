package dto

type CatalogPageResponse struct {
	Items      []StoryResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	NextOffset *int            `json:"next_offset,omitempty"`
}
