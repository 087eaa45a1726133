package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"inkpost/internal/model"
	"inkpost/internal/pkg/dbutil"
	appErr "inkpost/internal/pkg/errors"
)

var blogColumns = []string{"id", "author", "state", "title", "content", "ctime", "mtime"}

type BlogRepo struct {
	db *sql.DB
}

func NewBlogRepo(db *sql.DB) *BlogRepo {
	return &BlogRepo{db: db}
}

func (r *BlogRepo) Create(ctx context.Context, blog *model.Blog) error {
	data := map[string]interface{}{
		"id":      blog.ID,
		"author":  blog.Author,
		"state":   blog.State,
		"title":   blog.Title,
		"content": blog.Content,
		"ctime":   blog.Ctime,
		"mtime":   blog.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("blogs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// GetByIDState fetches regardless of author; the service layer decides
// between not-found and forbidden.
func (r *BlogRepo) GetByIDState(ctx context.Context, blogID, state string) (*model.Blog, error) {
	return r.getOne(ctx, map[string]interface{}{"id": blogID, "state": state})
}

func (r *BlogRepo) GetOwned(ctx context.Context, authorID, blogID, state string) (*model.Blog, error) {
	return r.getOne(ctx, map[string]interface{}{"id": blogID, "author": authorID, "state": state})
}

func (r *BlogRepo) GetPublishedByID(ctx context.Context, blogID string) (*model.Blog, error) {
	return r.getOne(ctx, map[string]interface{}{"id": blogID, "state": model.BlogStatePublished})
}

func (r *BlogRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Blog, error) {
	sqlStr, args, err := builder.BuildSelect("blogs", where, blogColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var blog model.Blog
	if err := rows.Scan(&blog.ID, &blog.Author, &blog.State, &blog.Title, &blog.Content, &blog.Ctime, &blog.Mtime); err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *BlogRepo) ListByAuthor(ctx context.Context, authorID, state, query string) ([]model.Blog, error) {
	where := map[string]interface{}{
		"author":   authorID,
		"state":    state,
		"_orderby": "ctime desc",
	}
	if query != "" {
		like := "%" + query + "%"
		where["_custom_search"] = builder.Custom("(title ILIKE ? OR content ILIKE ?)", like, like)
	}
	return r.list(ctx, where)
}

func (r *BlogRepo) ListPublished(ctx context.Context, query string) ([]model.Blog, error) {
	where := map[string]interface{}{
		"state":    model.BlogStatePublished,
		"_orderby": "ctime desc",
	}
	if query != "" {
		like := "%" + query + "%"
		where["_custom_search"] = builder.Custom("(title ILIKE ? OR content ILIKE ?)", like, like)
	}
	return r.list(ctx, where)
}

func (r *BlogRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Blog, error) {
	sqlStr, args, err := builder.BuildSelect("blogs", where, blogColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	blogs := make([]model.Blog, 0)
	for rows.Next() {
		var blog model.Blog
		if err := rows.Scan(&blog.ID, &blog.Author, &blog.State, &blog.Title, &blog.Content, &blog.Ctime, &blog.Mtime); err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}
	return blogs, rows.Err()
}

func (r *BlogRepo) UpdateContent(ctx context.Context, blogID, state, title, content string, mtime int64) error {
	where := map[string]interface{}{"id": blogID, "state": state}
	update := map[string]interface{}{
		"title":   title,
		"content": content,
		"mtime":   mtime,
	}
	return r.update(ctx, where, update)
}

// Publish flips a draft to published; author may be the anonymous sentinel.
func (r *BlogRepo) Publish(ctx context.Context, blogID, author string, mtime int64) error {
	where := map[string]interface{}{"id": blogID, "state": model.BlogStateDraft}
	update := map[string]interface{}{
		"state":  model.BlogStatePublished,
		"author": author,
		"mtime":  mtime,
	}
	return r.update(ctx, where, update)
}

// Tombstone overwrites a published blog's title/content in place; the row
// and its author survive.
func (r *BlogRepo) Tombstone(ctx context.Context, blogID string, mtime int64) error {
	where := map[string]interface{}{"id": blogID, "state": model.BlogStatePublished}
	update := map[string]interface{}{
		"title":   model.TombstoneTitle,
		"content": model.TombstoneContent,
		"mtime":   mtime,
	}
	return r.update(ctx, where, update)
}

func (r *BlogRepo) update(ctx context.Context, where, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate("blogs", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// DeleteDraft hard-deletes; only drafts ever leave the table.
func (r *BlogRepo) DeleteDraft(ctx context.Context, blogID string) error {
	sqlStr, args, err := builder.BuildDelete("blogs", map[string]interface{}{"id": blogID, "state": model.BlogStateDraft})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
