package server

import (
	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostView is the wire shape of a post. The creator field shadows the
// preloaded User association with its minimal public identity so feed pages
// and broadcast events never carry email addresses.
type PostView struct {
	*models.Post
	User models.Creator `json:"user"`
}

func newPostView(post *models.Post) PostView {
	return PostView{Post: post, User: post.User.Summary()}
}

func newPostViews(posts []*models.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, newPostView(post))
	}
	return views
}

// FeedResponse is the API shape for one feed page.
type FeedResponse struct {
	Posts      []PostView `json:"posts"`
	TotalItems int64      `json:"total_items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// GetFeed handles GET /api/feed/posts?page=N
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)

	feedPage, err := s.feedService.ListPosts(c.UserContext(), page)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if page < 1 {
		page = 1
	}

	return c.JSON(FeedResponse{
		Posts:      newPostViews(feedPage.Items),
		TotalItems: feedPage.Total,
		Page:       page,
		PageSize:   service.PageSize,
	})
}

// GetFeedPost handles GET /api/feed/posts/:id
func (s *Server) GetFeedPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.feedService.GetPost(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(newPostView(post))
}

// CreateFeedPost handles POST /api/feed/posts
func (s *Server) CreateFeedPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageRef string `json:"image_ref"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.feedService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:   userID,
		Title:    req.Title,
		Content:  req.Content,
		ImageRef: req.ImageRef,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(newPostView(post))
}

// UpdateFeedPost handles PUT /api/feed/posts/:id
func (s *Server) UpdateFeedPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageRef string `json:"image_ref"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.feedService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:   userID,
		PostID:   postID,
		Title:    req.Title,
		Content:  req.Content,
		ImageRef: req.ImageRef,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(newPostView(post))
}

// DeleteFeedPost handles DELETE /api/feed/posts/:id
func (s *Server) DeleteFeedPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.feedService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: userID,
		PostID: postID,
	}); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
