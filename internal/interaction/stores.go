package interaction

import (
	"sync"

	"network/internal/models"
)

type commentEntry struct {
	view   models.CommentView
	hidden bool
}

// Comments holds the comment threads the user has opened, newest first.
type Comments struct {
	mu      sync.Mutex
	threads map[uint][]*commentEntry
	byID    map[uint]*commentEntry
}

func NewComments() *Comments {
	return &Comments{
		threads: make(map[uint][]*commentEntry),
		byID:    make(map[uint]*commentEntry),
	}
}

// Load replaces the thread of postID.
func (s *Comments) Load(postID uint, comments []models.CommentView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.threads[postID] {
		delete(s.byID, e.view.ID)
	}
	thread := make([]*commentEntry, 0, len(comments))
	for _, cv := range comments {
		e := &commentEntry{view: cv}
		thread = append(thread, e)
		s.byID[cv.ID] = e
	}
	s.threads[postID] = thread
}

// List returns the visible comments of postID.
func (s *Comments) List(postID uint) []models.CommentView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CommentView
	for _, e := range s.threads[postID] {
		if !e.hidden {
			out = append(out, e.view)
		}
	}
	return out
}

func (s *Comments) Add(postID uint, cv models.CommentView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &commentEntry{view: cv}
	s.threads[postID] = append([]*commentEntry{e}, s.threads[postID]...)
	s.byID[cv.ID] = e
}

func (s *Comments) Get(commentID uint) (models.CommentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[commentID]
	if !ok {
		return models.CommentView{}, false
	}
	return e.view, true
}

func (s *Comments) SetContent(commentID uint, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[commentID]
	if ok {
		e.view.Content = content
	}
	return ok
}

// SetHidden hides a comment pending its deletion, or shows it again.
func (s *Comments) SetHidden(commentID uint, hidden bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[commentID]; ok {
		e.hidden = hidden
	}
}

func (s *Comments) Remove(postID, commentID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := s.threads[postID]
	for i, e := range thread {
		if e.view.ID == commentID {
			s.threads[postID] = append(thread[:i], thread[i+1:]...)
			break
		}
	}
	delete(s.byID, commentID)
}

// Profiles caches the profiles the user has looked at.
type Profiles struct {
	mu       sync.Mutex
	profiles map[uint]models.ProfileView
}

func NewProfiles() *Profiles {
	return &Profiles{profiles: make(map[uint]models.ProfileView)}
}

func (s *Profiles) Get(userID uint) (models.ProfileView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok
}

func (s *Profiles) Set(p models.ProfileView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *Profiles) Update(userID uint, fn func(*models.ProfileView)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return false
	}
	fn(&p)
	s.profiles[userID] = p
	return true
}
