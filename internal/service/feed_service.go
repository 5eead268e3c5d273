// Package service contains the application's business logic.
package service

import (
	"context"
	"log/slog"

	"feedhub/internal/cache"
	"feedhub/internal/middleware"
	"feedhub/internal/models"
	"feedhub/internal/observability"
	"feedhub/internal/repository"
	"feedhub/internal/validation"
)

// PageSize is the fixed number of posts per feed page.
const PageSize = 2

// AssetStore is the slice of the asset service the feed needs: resolving
// references on create/update and best-effort removal of replaced images.
type AssetStore interface {
	Exists(ctx context.Context, ref string) (bool, error)
	Remove(ctx context.Context, ref string) error
}

// FeedEventPublisher broadcasts feed change events to realtime subscribers.
// Implementations must not block; failures stay on the publisher's side.
type FeedEventPublisher interface {
	PostCreated(ctx context.Context, post *models.Post)
	PostUpdated(ctx context.Context, post *models.Post)
	PostDeleted(ctx context.Context, postID uint)
}

// FeedPage is one page of the feed plus the total post count.
type FeedPage struct {
	Items []*models.Post `json:"items"`
	Total int64          `json:"total"`
}

type FeedService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	assets   AssetStore
	events   FeedEventPublisher
}

type CreatePostInput struct {
	UserID   uint
	Title    string
	Content  string
	ImageRef string
}

type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Title    string
	Content  string
	ImageRef string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewFeedService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	assets AssetStore,
	events FeedEventPublisher,
) *FeedService {
	return &FeedService{
		postRepo: postRepo,
		userRepo: userRepo,
		assets:   assets,
		events:   events,
	}
}

// ListPosts returns the requested feed page, newest first. Pages beyond the
// data return empty items with the correct total. The first page is served
// cache-aside since it takes nearly all the read traffic.
func (s *FeedService) ListPosts(ctx context.Context, page int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	fetch := func() (*FeedPage, error) {
		total, err := s.postRepo.Count(ctx)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		items, err := s.postRepo.List(ctx, PageSize, offset)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if items == nil {
			items = []*models.Post{}
		}
		return &FeedPage{Items: items, Total: total}, nil
	}

	if page == 1 {
		var result FeedPage
		err := cache.CacheAside(ctx, cache.FeedPageKey(page), &result, cache.FeedPageTTL, func() error {
			fetched, err := fetch()
			if err != nil {
				return err
			}
			result = *fetched
			return nil
		})
		if err != nil {
			return nil, err
		}
		if result.Items == nil {
			result.Items = []*models.Post{}
		}
		return &result, nil
	}

	return fetch()
}

// GetPost returns a single post with its creator.
func (s *FeedService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.ValidatePostTitle(in.Title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.resolveImageRef(ctx, in.ImageRef); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    in.Title,
		Content:  in.Content,
		ImageRef: in.ImageRef,
		UserID:   in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	// Append to the creator's owned-post set. A failure here surfaces to
	// the caller and leaves the post without its owner link; there is no
	// compensation step.
	if err := s.userRepo.AddPost(ctx, in.UserID, post.ID); err != nil {
		return nil, err
	}

	created, err := s.GetPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PostCreated(ctx, created)
	}
	return created, nil
}

func (s *FeedService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	// Missing post wins over missing permission.
	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own posts")
	}

	if err := validation.ValidatePostTitle(in.Title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.ImageRef == "" {
		return nil, models.NewValidationError("image reference is required; resubmit the current one to keep it")
	}

	if in.ImageRef != post.ImageRef {
		if err := s.resolveImageRef(ctx, in.ImageRef); err != nil {
			return nil, err
		}
		// The replaced image is dropped best-effort before the post row
		// changes; a failure leaves an orphaned file, not a broken post.
		s.removeAsset(ctx, post.ImageRef)
	}

	post.Title = in.Title
	post.Content = in.Content
	post.ImageRef = in.ImageRef

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	updated, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PostUpdated(ctx, updated)
	}
	return updated, nil
}

func (s *FeedService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.UserID != in.UserID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}

	s.removeAsset(ctx, post.ImageRef)

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return models.NewInternalError(err)
	}

	if err := s.userRepo.RemovePost(ctx, in.UserID, in.PostID); err != nil {
		return err
	}

	if s.events != nil {
		s.events.PostDeleted(ctx, in.PostID)
	}
	return nil
}

// resolveImageRef rejects refs that are malformed or not present in the
// asset store.
func (s *FeedService) resolveImageRef(ctx context.Context, ref string) error {
	if err := validation.ValidateAssetRef(ref); err != nil {
		return models.NewValidationError(err.Error())
	}
	exists, err := s.assets.Exists(ctx, ref)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !exists {
		return models.NewValidationError("image reference does not resolve to a stored asset")
	}
	return nil
}

// removeAsset drops a stored image by reference. Deletion is advisory: the
// mutation that triggered it must not fail because cleanup did.
func (s *FeedService) removeAsset(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.assets.Remove(ctx, ref); err != nil {
		observability.AssetDeleteFailures.Inc()
		middleware.Logger.WarnContext(ctx, "asset cleanup failed",
			slog.String("ref", ref),
			slog.String("error", err.Error()),
		)
	}
}
