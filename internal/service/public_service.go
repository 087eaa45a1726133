package service

import (
	"bytes"
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"inkpost/internal/model"
	appErr "inkpost/internal/pkg/errors"
	"inkpost/internal/repo"
)

const anonymousDisplayName = "Anonymous"

// PublicBlog is the unauthenticated projection: author reduced to a display
// name, update timestamps withheld.
type PublicBlog struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Content string       `json:"content"`
	HTML    string       `json:"html"`
	Author  PublicAuthor `json:"author"`
	Ctime   int64        `json:"ctime"`
}

type PublicAuthor struct {
	Name string `json:"name"`
}

// PublicService serves published blogs only. Author names are immutable in
// this system, so they sit in a small expirable cache in front of the user
// store.
type PublicService struct {
	blogs     *repo.BlogRepo
	users     *repo.UserRepo
	anonymous string
	names     *expirable.LRU[string, string]
}

func NewPublicService(blogs *repo.BlogRepo, users *repo.UserRepo, anonymousAuthor string) *PublicService {
	return &PublicService{
		blogs:     blogs,
		users:     users,
		anonymous: anonymousAuthor,
		names:     expirable.NewLRU[string, string](1024, nil, 10*time.Minute),
	}
}

func (s *PublicService) Search(ctx context.Context, query string) ([]PublicBlog, error) {
	blogs, err := s.blogs.ListPublished(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]PublicBlog, 0, len(blogs))
	for i := range blogs {
		results = append(results, s.project(ctx, &blogs[i]))
	}
	return results, nil
}

func (s *PublicService) GetByID(ctx context.Context, blogID string) (*PublicBlog, error) {
	blog, err := s.blogs.GetPublishedByID(ctx, blogID)
	if err != nil {
		return nil, err
	}
	view := s.project(ctx, blog)
	return &view, nil
}

func (s *PublicService) project(ctx context.Context, blog *model.Blog) PublicBlog {
	return PublicBlog{
		ID:      blog.ID,
		Title:   blog.Title,
		Content: blog.Content,
		HTML:    renderMarkdown(ctx, blog.Content),
		Author:  PublicAuthor{Name: s.authorName(ctx, blog.Author)},
		Ctime:   blog.Ctime,
	}
}

func (s *PublicService) authorName(ctx context.Context, authorID string) string {
	if authorID == s.anonymous {
		return anonymousDisplayName
	}
	if name, ok := s.names.Get(authorID); ok {
		return name
	}
	user, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if !appErr.IsNotFound(err) {
			logutil.GetLogger(ctx).Warn("author lookup failed", zap.String("author", authorID), zap.Error(err))
		}
		return anonymousDisplayName
	}
	s.names.Add(authorID, user.Name)
	return user.Name
}

func renderMarkdown(ctx context.Context, content string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		logutil.GetLogger(ctx).Warn("markdown render failed", zap.Error(err))
		return ""
	}
	return buf.String()
}
