package driven

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// ContentMerger resolves chapter-body loadedness independently of the
// top-level sync-merge decision. When a remote novel wins a merge, locally
// cached chapter bodies must survive rather than be dropped.
type ContentMerger interface {
	// MergeNovelWithLocalContent returns the remote novel with any chapter
	// bodies that are missing remotely but cached locally carried over.
	MergeNovelWithLocalContent(remote, local *domain.Novel) *domain.Novel

	// EnsureNovelContentLoaded loads any chapter bodies that are not yet
	// cached, so uploads carry full content.
	EnsureNovelContentLoaded(ctx context.Context, novel *domain.Novel) (*domain.Novel, error)
}
