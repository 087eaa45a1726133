package model

const (
	BlogStateDraft     = "draft"
	BlogStatePublished = "published"
)

// Tombstone values written over a deleted published blog. They are also
// rejected as user-supplied title/content so a deletion cannot be faked.
const (
	TombstoneTitle   = "[Deleted Blog]"
	TombstoneContent = "This blog has been deleted"
)

type Blog struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	State   string `json:"state"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Ctime   int64  `json:"ctime"`
	Mtime   int64  `json:"mtime"`
}

func IsValidBlogState(state string) bool {
	return state == BlogStateDraft || state == BlogStatePublished
}
