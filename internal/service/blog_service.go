package service

import (
	"context"

	"inkpost/internal/model"
	appErr "inkpost/internal/pkg/errors"
	"inkpost/internal/pkg/timeutil"
	"inkpost/internal/repo"
)

// BlogService owns the draft/published state machine. Drafts are the only
// hard-deletable state; published blogs are tombstoned in place. Anonymous
// publication swaps the author for the configured sentinel, after which
// the original author can no longer pass ownership checks.
type BlogService struct {
	blogs           *repo.BlogRepo
	anonymousAuthor string
}

func NewBlogService(blogs *repo.BlogRepo, anonymousAuthor string) *BlogService {
	return &BlogService{blogs: blogs, anonymousAuthor: anonymousAuthor}
}

type BlogInput struct {
	Title   string
	Content string
}

func validateContent(in BlogInput) error {
	if in.Title == "" || in.Content == "" {
		return appErr.ErrInvalid
	}
	if in.Title == model.TombstoneTitle || in.Content == model.TombstoneContent {
		return appErr.ErrInvalid
	}
	return nil
}

func (s *BlogService) Create(ctx context.Context, userID, state string, in BlogInput, anon bool) (*model.Blog, error) {
	if !model.IsValidBlogState(state) {
		return nil, appErr.ErrInvalid
	}
	if state == model.BlogStateDraft && anon {
		return nil, appErr.ErrForbidden
	}
	if err := validateContent(in); err != nil {
		return nil, err
	}
	author := userID
	if state == model.BlogStatePublished && anon {
		author = s.anonymousAuthor
	}
	now := timeutil.NowUnix()
	blog := &model.Blog{
		ID:      newID(),
		Author:  author,
		State:   state,
		Title:   in.Title,
		Content: in.Content,
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *BlogService) Update(ctx context.Context, userID, blogID, state string, in BlogInput) error {
	blog, err := s.blogs.GetByIDState(ctx, blogID, state)
	if err != nil {
		return err
	}
	if blog.Author != userID {
		return appErr.ErrForbidden
	}
	if err := validateContent(in); err != nil {
		return err
	}
	return s.blogs.UpdateContent(ctx, blogID, state, in.Title, in.Content, timeutil.NowUnix())
}

func (s *BlogService) Delete(ctx context.Context, userID, blogID, state string) error {
	blog, err := s.blogs.GetByIDState(ctx, blogID, state)
	if err != nil {
		return err
	}
	if blog.Author != userID {
		return appErr.ErrForbidden
	}
	if state == model.BlogStateDraft {
		return s.blogs.DeleteDraft(ctx, blogID)
	}
	return s.blogs.Tombstone(ctx, blogID, timeutil.NowUnix())
}

func (s *BlogService) Publish(ctx context.Context, userID, blogID string, anon bool) error {
	draft, err := s.blogs.GetByIDState(ctx, blogID, model.BlogStateDraft)
	if err != nil {
		return err
	}
	if draft.Author != userID {
		return appErr.ErrForbidden
	}
	author := draft.Author
	if anon {
		author = s.anonymousAuthor
	}
	return s.blogs.Publish(ctx, blogID, author, timeutil.NowUnix())
}

// List returns the caller's own blogs in the given state, optionally
// filtered by a case-insensitive substring over title or content.
func (s *BlogService) List(ctx context.Context, userID, state, query string) ([]model.Blog, error) {
	if !model.IsValidBlogState(state) {
		return nil, appErr.ErrInvalid
	}
	return s.blogs.ListByAuthor(ctx, userID, state, query)
}

func (s *BlogService) Get(ctx context.Context, userID, blogID, state string) (*model.Blog, error) {
	if !model.IsValidBlogState(state) {
		return nil, appErr.ErrInvalid
	}
	return s.blogs.GetOwned(ctx, userID, blogID, state)
}
