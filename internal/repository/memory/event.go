package memory

import (
	"context"
	"maps"
	"slices"

	"carshare-ledger/internal/domain"
)

type eventRepository struct {
	st *state
}

func (r *eventRepository) Append(ctx context.Context, event *domain.Event) error {
	event.Seq = int64(len(r.st.events)) + 1
	r.st.events = append(r.st.events, *event)
	r.st.unpublished[event.Seq] = struct{}{}
	return nil
}

func (r *eventRepository) ListAfter(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error) {
	if afterSeq < 0 {
		afterSeq = 0
	}
	if afterSeq >= int64(len(r.st.events)) {
		return nil, nil
	}
	end := int64(len(r.st.events))
	if limit > 0 && afterSeq+int64(limit) < end {
		end = afterSeq + int64(limit)
	}
	out := make([]domain.Event, end-afterSeq)
	copy(out, r.st.events[afterSeq:end])
	return out, nil
}

func (r *eventRepository) ListUnpublished(ctx context.Context, limit int32) ([]domain.Event, error) {
	seqs := slices.Sorted(maps.Keys(r.st.unpublished))
	if limit > 0 && int(limit) < len(seqs) {
		seqs = seqs[:limit]
	}
	out := make([]domain.Event, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, r.st.events[seq-1])
	}
	return out, nil
}

func (r *eventRepository) MarkPublished(ctx context.Context, seqs []int64) error {
	for _, seq := range seqs {
		delete(r.st.unpublished, seq)
	}
	return nil
}
