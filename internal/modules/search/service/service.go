package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/pkg/sanitize"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
)

const noticesIndex = "notices"

// NoticeIndex keeps a full-text copy of the notices. The store stays authoritative:
// search results are ids the caller reloads.
type NoticeIndex interface {
	IndexNotice(notice *entity.Notice) error
	SearchNotices(ctx context.Context, query string, limit int64) ([]uuid.UUID, error)
}

type meiliNoticeIndex struct {
	client meilisearch.ServiceManager
}

func NewMeiliNoticeIndex(client meilisearch.ServiceManager) NoticeIndex {
	s := &meiliNoticeIndex{client: client}
	s.initIndex()
	return s
}

func (s *meiliNoticeIndex) initIndex() {
	filterable := []string{"status", "category", "urgency", "subject", "dependency"}
	filterableInterface := make([]any, len(filterable))
	for i, v := range filterable {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(noticesIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("[search] failed to update notices filterable attributes: %v", err)
	}

	sortable := []string{"created_at", "deadline"}
	if _, err := s.client.Index(noticesIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("[search] failed to update notices sortable attributes: %v", err)
	}

	log.Println("[search] notices index initialized")
}

type noticeDoc struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Subject        string `json:"subject"`
	Category       string `json:"category"`
	Urgency        string `json:"urgency"`
	Dependency     bool   `json:"dependency"`
	AdditionalInfo string `json:"additional_info"`
	Status         string `json:"status"`
	Deadline       int64  `json:"deadline,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

func newNoticeDoc(n *entity.Notice) noticeDoc {
	doc := noticeDoc{
		ID:          n.ID.String(),
		Title:       n.Title,
		Description: sanitize.Flatten(n.Description),
		Subject:     n.Subject,
		Category:    string(n.Category),
		Urgency:     string(n.Urgency),
		Dependency:  n.Dependency,
		Status:      string(n.Status),
		CreatedAt:   n.CreatedAt.Unix(),
	}
	if n.AdditionalInfo != nil {
		doc.AdditionalInfo = sanitize.Flatten(*n.AdditionalInfo)
	}
	if n.Deadline != nil {
		doc.Deadline = n.Deadline.Unix()
	}
	return doc
}

// IndexNotice upserts the notice document, status included, so hidden and expired
// notices drop out of active searches.
func (s *meiliNoticeIndex) IndexNotice(notice *entity.Notice) error {
	task, err := s.client.Index(noticesIndex).AddDocuments([]noticeDoc{newNoticeDoc(notice)}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("[search] indexed notice %s, task id: %d", notice.ID, task.TaskUID)
	return nil
}

type searchHits struct {
	Hits []struct {
		ID string `json:"id"`
	} `json:"hits"`
}

// SearchNotices returns the ids of active notices matching query, best match first.
func (s *meiliNoticeIndex) SearchNotices(ctx context.Context, query string, limit int64) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.client.Index(noticesIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Filter:               fmt.Sprintf("status = %s", entity.StatusActive),
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	var res searchHits
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			log.Printf("[search] skipping hit with malformed id %q", hit.ID)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
