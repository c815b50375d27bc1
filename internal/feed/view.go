package feed

import (
	"sync"

	"network/internal/models"
)

// View renders what the Session decides. Session calls it while holding its
// own lock, so implementations must not call back into the Session.
type View interface {
	Clear()
	Append(posts []models.PostView)
	Prepend(post models.PostView)
	Update(post models.PostView)
	Remove(postID uint)
	// ShowMessage replaces the post list with a notice (empty feed or load error).
	ShowMessage(message string)
	// SetSentinel arms or retires the scroll trigger.
	SetSentinel(armed bool)
}

// MemoryView is a View that records the rendered state. The terminal client
// prints from it; tests inspect it.
type MemoryView struct {
	mu       sync.Mutex
	posts    []models.PostView
	message  string
	sentinel bool
	clears   int
}

func NewMemoryView() *MemoryView { return &MemoryView{} }

func (v *MemoryView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = nil
	v.message = ""
	v.clears++
}

func (v *MemoryView) Append(posts []models.PostView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = append(v.posts, posts...)
	v.message = ""
}

func (v *MemoryView) Prepend(post models.PostView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = append([]models.PostView{post}, v.posts...)
	v.message = ""
}

func (v *MemoryView) Update(post models.PostView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.posts {
		if v.posts[i].ID == post.ID {
			v.posts[i] = post
			return
		}
	}
}

func (v *MemoryView) Remove(postID uint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.posts {
		if v.posts[i].ID == postID {
			v.posts = append(v.posts[:i], v.posts[i+1:]...)
			return
		}
	}
}

func (v *MemoryView) ShowMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = nil
	v.message = message
}

func (v *MemoryView) SetSentinel(armed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sentinel = armed
}

// Posts returns a copy of the rendered posts.
func (v *MemoryView) Posts() []models.PostView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.PostView(nil), v.posts...)
}

func (v *MemoryView) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *MemoryView) SentinelArmed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sentinel
}

// Clears counts full resets, one per LoadPosts.
func (v *MemoryView) Clears() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clears
}
