package handlers

import (
	"github.com/nictjader/siren-backend/internal/domain/model"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
)

func toStoryResponse(story model.Story, coverURL string) dto.StoryResponse {
	resp := dto.StoryResponse{
		ID:          story.ID,
		Title:       story.Title,
		Preview:     story.Preview,
		Body:        story.Body,
		Subgenre:    string(story.Subgenre),
		Premium:     story.Premium,
		CoinCost:    story.CoinCost,
		WordCount:   story.WordCount,
		CoverURL:    coverURL,
		PublishedAt: story.PublishedAt,
		SeriesTitle: story.SeriesTitle,
	}

	if story.SeriesID != nil {
		resp.SeriesID = *story.SeriesID
	}
	if story.PartNumber != nil {
		resp.PartNumber = *story.PartNumber
	}
	if story.TotalParts != nil {
		resp.TotalParts = *story.TotalParts
	}

	return resp
}
