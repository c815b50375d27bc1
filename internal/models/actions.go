package models

import "fmt"

// PostAction is the closed set of mutations accepted on /post/{id} and
// /post/comment/{id}.
type PostAction string

const (
	ActionLike   PostAction = "like"
	ActionEdit   PostAction = "edit"
	ActionDelete PostAction = "delete"
)

// ParsePostAction rejects anything outside the closed set.
func ParsePostAction(s string) (PostAction, error) {
	switch a := PostAction(s); a {
	case ActionLike, ActionEdit, ActionDelete:
		return a, nil
	}
	return "", NewValidationError(fmt.Sprintf("Invalid action: %s", s))
}

// ActionRequest is the body of a mutation request. Content is a pointer so a
// missing field can be told apart from an empty one.
type ActionRequest struct {
	Action  string  `json:"action"`
	Content *string `json:"content"`
}

// ContentRequest is the body of create requests.
type ContentRequest struct {
	Content *string `json:"content"`
}
